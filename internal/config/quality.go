package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// QualityProfile describes the rules the quality gate enforces. Loaded from
// a YAML file so editors can tune thresholds and marker vocabularies without
// a rebuild; the zero path falls back to the built-in defaults.
type QualityProfile struct {
	MinChars          int      `yaml:"min_chars"`
	MaxChars          int      `yaml:"max_chars"`
	MinSubheadings    int      `yaml:"min_subheadings"`
	RequireChecklist  bool     `yaml:"require_checklist"`
	RequireDisclaimer bool     `yaml:"require_disclaimer"`
	MinKeywords       int      `yaml:"min_keywords"`
	Keywords          []string `yaml:"keywords"`
	ChecklistMarkers  []string `yaml:"checklist_markers"`
	DisclaimerMarkers []string `yaml:"disclaimer_markers"`
	EmpathyMarkers    []string `yaml:"empathy_markers"`
	CaseMarkers       []string `yaml:"case_markers"`
	ProcedureMarkers  []string `yaml:"procedure_markers"`
	EmpathyWindow     int      `yaml:"empathy_window"`
}

func DefaultQualityProfile() QualityProfile {
	return QualityProfile{
		MinChars:          1600,
		MaxChars:          1900,
		MinSubheadings:    3,
		RequireChecklist:  true,
		RequireDisclaimer: true,
		MinKeywords:       2,
		Keywords:          []string{"debt collection", "law firm", "attorney", "legal advice"},
		ChecklistMarkers:  []string{"checklist", "key points", "summary", "- ["},
		DisclaimerMarkers: []string{"disclaimer", "legal notice", "not legal advice"},
		EmpathyMarkers:    []string{"worried", "struggling", "difficult", "stressful", "concern"},
		CaseMarkers:       []string{"case", "example", "in practice", "real-world"},
		ProcedureMarkers:  []string{"procedure", "step", "process", "how to"},
		EmpathyWindow:     200,
	}
}

// LoadQualityProfile reads the profile from path, layering the file's
// values over the defaults. An empty path returns the defaults unchanged.
func LoadQualityProfile(path string) (QualityProfile, error) {
	profile := DefaultQualityProfile()
	if path == "" {
		return profile, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return QualityProfile{}, fmt.Errorf("read quality profile: %w", err)
	}
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return QualityProfile{}, fmt.Errorf("parse quality profile: %w", err)
	}

	if profile.MinChars <= 0 || profile.MaxChars < profile.MinChars {
		return QualityProfile{}, fmt.Errorf("quality profile: invalid length bounds %d..%d", profile.MinChars, profile.MaxChars)
	}
	if profile.EmpathyWindow <= 0 {
		profile.EmpathyWindow = DefaultQualityProfile().EmpathyWindow
	}
	return profile, nil
}
