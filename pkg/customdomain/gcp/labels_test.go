package gcp

import (
	"testing"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

func TestMergeLabelsAddsCustomToDefaults(t *testing.T) {
	defaults := map[string]string{
		"environment": "production",
		"managed-by":  "pulumi",
	}

	merged := mergeLabels(defaults, pulumi.StringMap{
		"gateway": pulumi.String("true"),
	})

	if len(merged) != 3 {
		t.Errorf("Expected 3 labels, but got %d", len(merged))
	}
	if merged["gateway"] == nil {
		t.Errorf("Expected merged labels to contain the additional key")
	}
	if merged["environment"] == nil || merged["managed-by"] == nil {
		t.Errorf("Expected merged labels to keep the default keys")
	}
}

func TestMergeLabelsOverridesConflictingKeys(t *testing.T) {
	defaults := map[string]string{
		"managed-by": "hand",
	}
	override := pulumi.String("pulumi")

	merged := mergeLabels(defaults, pulumi.StringMap{
		"managed-by": override,
	})

	if merged["managed-by"] != override {
		t.Errorf("Expected additional labels to override defaults")
	}
}
