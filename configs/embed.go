// Package configs provides embedded configuration templates and word lists
// for evidence-core.
//
// Templates are embedded at build time using Go's //go:embed directive so
// they ship inside the binary rather than as loose files beside it.
//
// Configuration Hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config/config.go NewConfig())
//  2. User config (~/.config/evidence-core/config.yaml)
//  3. Case config (.evidence-core.yaml at the case workspace root)
//  4. Environment variables (EVIDENCE_CORE_*)
package configs

import _ "embed"

// UserConfigTemplate is the template for machine-level configuration,
// written by `evidence-core config init` to ~/.config/evidence-core/config.yaml.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for case-level configuration
// (.evidence-core.yaml at a case root). No command writes it out;
// `evidence-core config init` writes only UserConfigTemplate.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string

// LegalStopwordsTemplate is the legal_analyzer's stop word list (C8).
//
//go:embed legal_stopwords.yaml
var LegalStopwordsTemplate string

// LegalSynonymsTemplate is the legal_analyzer's synonym group list (C8).
//
//go:embed legal_synonyms.yaml
var LegalSynonymsTemplate string
