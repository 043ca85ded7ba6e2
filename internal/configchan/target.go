package configchan

import "fmt"

// TargetConfig describes the Spanner instance a mapping is migrated into.
type TargetConfig struct {
	GCPProjectID      string `mapstructure:"gcp_project_id" json:"GCPProjectID" yaml:"gcpProjectId"`
	SpannerInstanceID string `mapstructure:"spanner_instance_id" json:"SpannerInstanceID" yaml:"spannerInstanceId"`
	Dialect           string `mapstructure:"dialect" json:"Dialect" yaml:"dialect"`
}

// Configured reports whether a target instance has been set.
func (c TargetConfig) Configured() bool {
	return c.GCPProjectID != "" && c.SpannerInstanceID != ""
}

func (c TargetConfig) String() string {
	if !c.Configured() {
		return "<not configured>"
	}
	return fmt.Sprintf("projects/%s/instances/%s (%s)", c.GCPProjectID, c.SpannerInstanceID, c.Dialect)
}
