package upgrade

import (
	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/record"
)

// pipelineName is the name attached to data processes that came out of a v1
// processing pipeline.
const pipelineName = "Processing Pipeline"

// Processing upgrades a processing core file from v1.x to the target
// version. The v1 split between a processing pipeline and standalone
// analyses collapses into one data_processes list with a Processing or
// Analysis stage, the pipeline itself becomes a Code entry, and a sequential
// dependency graph is derived from the process order.
func Processing(doc map[string]any, target string, pass *migrate.Pass) (map[string]any, error) {
	out := map[string]any{
		"object_type":      "Processing",
		"schema_version":   target,
		"data_processes":   []any{},
		"pipelines":        nil,
		"dependency_graph": map[string]any{},
		"notes":            doc["notes"],
	}

	pipeline, _ := record.MapRef(doc, "processing_pipeline")
	processorName, _ := record.String(pipeline, "processor_full_name")
	if processorName == "" {
		processorName = "Unknown"
	}

	pipelineURL, _ := record.String(pipeline, "pipeline_url")
	pipelineVersion, _ := record.String(pipeline, "pipeline_version")
	hasPipeline := pipelineURL != "" || pipelineVersion != ""
	if hasPipeline {
		if pipelineVersion == "" {
			pipelineVersion = "unknown"
		}
		out["pipelines"] = []any{map[string]any{
			"object_type": "Code",
			"name":        pipelineName,
			"url":         pipelineURL,
			"version":     pipelineVersion,
		}}
	}

	var processes []any

	pipelineProcesses, _ := record.Slice(pipeline, "data_processes")
	for _, proc := range record.Documents(pipelineProcesses) {
		v2 := upgradeDataProcess(proc, "Processing", pass)
		v2["experimenters"] = []any{person(processorName)}
		if hasPipeline {
			v2["pipeline_name"] = pipelineName
		}
		processes = append(processes, v2)
	}

	analyses, _ := record.Slice(doc, "analyses")
	for _, analysis := range record.Documents(analyses) {
		processes = append(processes, upgradeDataProcess(analysis, "Analysis", pass))
	}

	// The dependency graph is keyed by process name; v1 pipelines were
	// strictly sequential, so each process depends on its predecessor.
	graph := make(map[string]any, len(processes))
	for i, p := range processes {
		name, _ := record.String(p.(map[string]any), "name")
		if i == 0 {
			graph[name] = []any{}
			continue
		}
		prev, _ := record.String(processes[i-1].(map[string]any), "name")
		graph[name] = []any{prev}
	}

	if processes == nil {
		processes = []any{}
	}
	out["data_processes"] = processes
	out["dependency_graph"] = graph
	return out, nil
}

// upgradeDataProcess converts one v1 process or analysis entry into the v2
// DataProcess shape. Names are made unique through the pass counter because
// the dependency graph is keyed by them.
func upgradeDataProcess(proc map[string]any, stage string, pass *migrate.Pass) map[string]any {
	baseName, _ := record.String(proc, "name")
	if baseName == "" {
		baseName = "Unknown"
	}

	var experimenters []any
	if stage == "Analysis" {
		if analyst, ok := record.String(proc, "analyst_full_name"); ok && analyst != "" {
			experimenters = append(experimenters, person(analyst))
		}
	}
	if experimenters == nil {
		experimenters = []any{person("Unknown")}
	}

	codeVersion, _ := record.String(proc, "code_version")
	if codeVersion == "" {
		codeVersion = "unknown"
	}
	codeURL, _ := record.String(proc, "code_url")

	notes, _ := record.String(proc, "notes")
	if baseName == "Other" && notes == "" {
		notes = upgradeNotePrefix + " Process type is unknown, no notes were provided."
	}

	out := map[string]any{
		"object_type":   "Data process",
		"process_type":  baseName,
		"name":          pass.ProcessName(baseName),
		"stage":         stage,
		"experimenters": experimenters,
		"code": map[string]any{
			"object_type": "Code",
			"name":        baseName,
			"url":         codeURL,
			"version":     codeVersion,
			"parameters":  proc["parameters"],
		},
		"start_date_time": proc["start_date_time"],
		"end_date_time":   proc["end_date_time"],
		"output_path":     proc["output_location"],
		"notes":           notes,
	}

	if outputs, ok := record.MapRef(proc, "outputs"); ok && len(outputs) > 0 {
		out["output_parameters"] = outputs
	}
	return out
}
