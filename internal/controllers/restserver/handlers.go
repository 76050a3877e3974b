package restserver

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func (c *Controller) handleRun(w http.ResponseWriter, req *http.Request) {
	classified := 0
	for _, sr := range c.result.Sections {
		if sr.Key.Classified() {
			classified++
		}
	}

	summary := runSummary{
		RunID:        c.result.RunID,
		Started:      c.result.Started,
		SectionCount: len(c.result.Sections),
		Classified:   classified,
	}
	if meanSD, ok := c.result.MeanSDVelocity(); ok {
		summary.MeanSDVelocity = &meanSD
	}

	if err := c.formatter.WriteResponse(w, req, summary, nil); err != nil {
		c.logger.Errorf("error writing run summary response: %v", err)
	}
}

func (c *Controller) handleSections(w http.ResponseWriter, req *http.Request) {
	sections := make([]sectionResponse, len(c.result.Sections))
	for i, sr := range c.result.Sections {
		sections[i] = newSectionResponse(sr, c.result.Rows[i].AvgParticleCount)
	}

	if err := c.formatter.WriteResponse(w, req, sections, nil); err != nil {
		c.logger.Errorf("error writing sections response: %v", err)
	}
}

func (c *Controller) handleSection(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	section, err := strconv.Atoi(vars["section"])
	if err != nil || section < 1 || section > len(c.result.Sections) {
		http.Error(w, "unknown section", http.StatusNotFound)
		return
	}

	// Sections are stored in ordinal order, so the ordinal is the index+1
	sr := c.result.Sections[section-1]
	resp := newSectionResponse(sr, c.result.Rows[section-1].AvgParticleCount)

	if err := c.formatter.WriteResponse(w, req, resp, nil); err != nil {
		c.logger.Errorf("error writing section response: %v", err)
	}
}

func (c *Controller) handleCrossSections(w http.ResponseWriter, req *http.Request) {
	crossSections := make([]crossSectionResponse, 0, len(c.result.Averages))
	for _, key := range sortedKeys(c.result.Averages) {
		crossSections = append(crossSections, crossSectionResponse{
			XS:               key.String(),
			AvgParticleCount: c.result.Averages[key],
		})
	}

	if err := c.formatter.WriteResponse(w, req, crossSections, nil); err != nil {
		c.logger.Errorf("error writing cross-sections response: %v", err)
	}
}
