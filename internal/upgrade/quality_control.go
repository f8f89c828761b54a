package upgrade

import (
	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/record"
)

// QualityControl upgrades a quality control core file from v1.x to the
// target version: evaluations and metrics get their object type tags, and
// legacy curation values are promoted to curation metrics.
func QualityControl(doc map[string]any, target string, _ *migrate.Pass) (map[string]any, error) {
	doc["object_type"] = "Quality control"
	doc["schema_version"] = target

	evaluations, _ := record.Slice(doc, "evaluations")
	for _, evaluation := range record.Documents(evaluations) {
		if _, ok := evaluation["object_type"]; !ok {
			evaluation["object_type"] = "QC evaluation"
		}

		metrics, _ := record.Slice(evaluation, "metrics")
		for i, raw := range metrics {
			metric, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if _, ok := metric["object_type"]; !ok {
				metric["object_type"] = "QC metric"
			}
			if promoted, ok := promoteCurationMetric(metric); ok {
				metrics[i] = promoted
			}
		}
	}

	return doc, nil
}

// promoteCurationMetric lifts a legacy curation value up to the metric
// level: v1 stored the curations inside the metric value, v2 makes the
// curation list the value of a dedicated metric type.
func promoteCurationMetric(metric map[string]any) (map[string]any, bool) {
	value, ok := record.MapRef(metric, "value")
	if !ok {
		return nil, false
	}
	if kind, _ := record.String(value, "type"); kind != "curation" {
		return nil, false
	}

	name, _ := record.String(metric, "name")
	if name == "" {
		name = "unknown"
	}

	return map[string]any{
		"object_type":      "Curation metric",
		"name":             name,
		"value":            value["curations"],
		"description":      metric["description"],
		"reference":        metric["reference"],
		"evaluated_assets": metric["evaluated_assets"],
		"type":             "unknown",
		"curation_history": metric["curation_history"],
	}, true
}
