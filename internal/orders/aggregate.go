package orders

import (
	"sort"
	"time"
)

const dateLayout = "Jan 02, 2006 03:04 PM"

// mergeHistory turns rows fetched from the three sources into one page.
// Input is the concatenation of per-source result sets (each already sorted
// by order_date descending, at most offset+limit rows per source, no
// per-source offset applied), so the stable re-sort plus a single global
// window yields exact pagination across sources. Ties keep the COD, online,
// card probe order.
func mergeHistory(all []Order, limit, offset, totalCount int, now time.Time) *History {
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].OrderDate.After(all[j].OrderDate)
	})

	start := offset
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	page := make([]Order, end-start)
	copy(page, all[start:end])

	for i := range page {
		finalize(&page[i], now)
	}

	return &History{
		Orders:      page,
		TotalOrders: len(page),
		TotalCount:  totalCount,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+limit < totalCount,
		},
	}
}

// finalize computes the derived presentation fields on a normalized order.
func finalize(o *Order, now time.Time) {
	o.ItemCount = len(o.Products)
	o.CanCancel = CanCancel(o.Status, o.OrderDate, now)
	o.FormattedDate = o.OrderDate.Format(dateLayout)
}
