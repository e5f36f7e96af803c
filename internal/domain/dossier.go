package domain

import "time"

// DossierSection is one ordered section of a synthesized report.
type DossierSection struct {
	Title    string
	Content  string
	Order    int
	Metadata map[string]string
}

// Dossier is the final synthesized report of a research run.
type Dossier struct {
	ID              string
	ResearchRunID   string
	ExecutiveSummary string
	Sections        []DossierSection
	CitationsAppendix []Citation
	FilePaths       []string
	GeneratedAt     time.Time
	WordCount       int
}
