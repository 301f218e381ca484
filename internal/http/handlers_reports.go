package http

import (
	"net/http"

	"kakeibo/internal/report"
)

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.reports.Today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.writeReport(w, r, report.MonthOf(p.Year, p.Month))
}

func (s *Server) handleYearlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := ParseYearParam(r.URL.Query(), s.reports.Today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.writeReport(w, r, report.YearOf(year))
}

func (s *Server) writeReport(w http.ResponseWriter, r *http.Request, period report.Period) {
	rep, err := s.reports.Report(r.Context(), Viewer(r), period)
	if err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	NewResponse().JSON(rep).Write(w)
}

// handleCategoryDetails lists the items behind one category of the monthly report.
func (s *Server) handleCategoryDetails(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.reports.Today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	period := report.MonthOf(p.Year, p.Month)
	key := sanitizeInput(r.PathValue("id"))

	items, err := s.reports.CategoryDetails(r.Context(), Viewer(r), period, key)
	if err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	if items == nil {
		items = []report.Item{}
	}
	NewResponse().JSON(detailsResponse{Period: period, Category: key, Items: items}).Write(w)
}
