package shared

import (
	"net/http"
	"strconv"
)

// TotalCountHeader carries the unpaged size of a listing.
const TotalCountHeader = "X-Total-Count"

// PageSize bounds the limit query parameter of one kind of listing.
type PageSize struct {
	Default int
	Max     int
}

var (
	// RequestPage serves leave requests and job history.
	RequestPage = PageSize{Default: 50, Max: 200}
	// FeedPage serves append-only feeds: the audit trail and the inbox.
	FeedPage = PageSize{Default: 100, Max: 500}
)

type Pagination struct {
	Limit  int
	Offset int
}

// Page reads limit and offset. Unparseable or out-of-range values fall back
// to the defaults instead of failing the listing.
func Page(r *http.Request, size PageSize) Pagination {
	page := Pagination{Limit: size.Default}
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		page.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		page.Offset = v
	}
	if size.Max > 0 && page.Limit > size.Max {
		page.Limit = size.Max
	}
	return page
}

func SetTotalCount(w http.ResponseWriter, total int) {
	w.Header().Set(TotalCountHeader, strconv.Itoa(total))
}
