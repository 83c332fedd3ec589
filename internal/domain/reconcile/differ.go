package reconcile

import (
	"sort"

	"github.com/garyjia/tour-confirmation/internal/domain/entity"
)

// Diff classifies source items against the confirmed snapshot.
// A source item whose key is in the snapshot is confirmed, otherwise new;
// a snapshot item whose key is not in the source is cancelled. Records are
// grouped by category and ordered by service date, undated first.
func Diff(source []entity.ServiceItem, snapshot []entity.ConfirmedSnapshotItem) entity.ChangeSet {
	sourceKeys := make(entity.KeySet, len(source))
	for _, it := range source {
		sourceKeys.Add(it.Key())
	}
	snapshotByKey := make(map[entity.IdentityKey]entity.ConfirmedSnapshotItem, len(snapshot))
	for _, s := range snapshot {
		snapshotByKey[s.Key()] = s
	}

	cs := make(entity.ChangeSet)
	for _, it := range source {
		typ := entity.ChangeNew
		if _, ok := snapshotByKey[it.Key()]; ok {
			typ = entity.ChangeConfirmed
		}
		cs[it.Category] = append(cs[it.Category], entity.ChangeRecord{Type: typ, Item: it})
	}
	for _, s := range snapshot {
		if sourceKeys.Has(s.Key()) {
			continue
		}
		cs[s.Category] = append(cs[s.Category], entity.ChangeRecord{
			Type: entity.ChangeCancelled,
			Item: snapshotServiceItem(s),
		})
	}

	for cat := range cs {
		records := cs[cat]
		sort.SliceStable(records, func(i, j int) bool {
			return entity.CompareDates(records[i].Item.ServiceDate, records[j].Item.ServiceDate) < 0
		})
	}
	return cs
}

func snapshotServiceItem(s entity.ConfirmedSnapshotItem) entity.ServiceItem {
	return entity.ServiceItem{
		Category:     s.Category,
		SupplierName: s.SupplierName,
		Title:        s.Title,
		ServiceDate:  s.ServiceDate,
	}
}
