package service

import (
	"time"

	"pondok-keuangan/internal/models"
)

// DefaultTrendMonths is the trend window used when the caller gives none.
const DefaultTrendMonths = 6

// StatusCount is the number of documents in each review state.
type StatusCount struct {
	Diajukan int `json:"diajukan"`
	Diterima int `json:"diterima"`
	Revisi   int `json:"revisi"`
}

func (c StatusCount) Total() int {
	return c.Diajukan + c.Diterima + c.Revisi
}

// TrendPoint is the number of submissions in one calendar month.
type TrendPoint struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// RosterEntry pairs a pondok with its document for a periode. Document is
// nil when the pondok has not submitted.
type RosterEntry[D models.Document] struct {
	Pondok   models.PondokSummary `json:"pondok"`
	Document *D                   `json:"document"`
}

// StatusCounts partitions docs by status. A document with an unknown status
// is counted as diajukan so the parts always add up to len(docs).
func StatusCounts[D models.Document](docs []D) StatusCount {
	var c StatusCount
	for _, d := range docs {
		switch d.Header().Status {
		case models.StatusDiterima:
			c.Diterima++
		case models.StatusRevisi:
			c.Revisi++
		default:
			c.Diajukan++
		}
	}
	return c
}

// MonthlyTrend buckets submitted_at by month over the monthsBack months
// ending with the month of now, oldest first. Months are taken in now's
// location and months without submissions are reported with a zero count.
func MonthlyTrend[D models.Document](docs []D, monthsBack int, now time.Time) []TrendPoint {
	if monthsBack <= 0 {
		monthsBack = DefaultTrendMonths
	}
	loc := now.Location()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(monthsBack - 1), 0)

	points := make([]TrendPoint, monthsBack)
	index := make(map[string]int, monthsBack)
	for i := range points {
		label := first.AddDate(0, i, 0).Format("2006-01")
		points[i].Month = label
		index[label] = i
	}

	for _, d := range docs {
		at := d.Header().SubmittedAt
		if at.IsZero() {
			continue
		}
		if i, ok := index[at.In(loc).Format("2006-01")]; ok {
			points[i].Count++
		}
	}
	return points
}

// CombineWithRoster left-joins the pondok roster against one periode's
// documents. Every pondok appears exactly once, in roster order. If a pondok
// has more than one document the latest submission wins.
func CombineWithRoster[D models.Document](pondoks []models.Pondok, docs []D) []RosterEntry[D] {
	byPondok := make(map[string]int, len(docs))
	for i, d := range docs {
		h := d.Header()
		if j, ok := byPondok[h.PondokID]; ok && !h.SubmittedAt.After(docs[j].Header().SubmittedAt) {
			continue
		}
		byPondok[h.PondokID] = i
	}

	out := make([]RosterEntry[D], 0, len(pondoks))
	for _, p := range pondoks {
		entry := RosterEntry[D]{Pondok: models.PondokSummary{ID: p.ID, Nama: p.Nama, Jenis: p.Jenis}}
		if i, ok := byPondok[p.ID]; ok {
			doc := docs[i]
			entry.Document = &doc
		}
		out = append(out, entry)
	}
	return out
}
