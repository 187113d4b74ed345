// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/sam-fredrickson/keycompare"
	"github.com/sam-fredrickson/keycompare/internal/setup"
	"github.com/sam-fredrickson/keycompare/report"
)

// KRM annotation constants.
const (
	// AnnotationBase is the base prefix for all keycompare annotations.
	AnnotationBase = "compare.keycompare.io/"

	// AnnotationID is a correlation key pairing an expected and an actual ConfigMap.
	AnnotationID = AnnotationBase + "id"

	// AnnotationRole is "expected" or "actual".
	AnnotationRole = AnnotationBase + "role"

	// AnnotationDataKey names the data entry holding the records. Defaults to [DefaultDataKey].
	// Its extension selects the parser (.json, .xml, .yaml, .toml).
	AnnotationDataKey = AnnotationBase + "data-key"

	// AnnotationKeys specifies comma-separated key fields, each "name" or "alias=name".
	AnnotationKeys = AnnotationBase + "keys"

	// AnnotationRecords is the record selector path.
	AnnotationRecords = AnnotationBase + "records"

	// AnnotationRisk enables risk flattening when "true".
	AnnotationRisk = AnnotationBase + "risk"

	// AnnotationTolerance is the numeric tolerance, e.g. "0.001".
	AnnotationTolerance = AnnotationBase + "tolerance"

	// AnnotationDuplicateNames specifies the duplicate name mode: error, index or attribute.
	AnnotationDuplicateNames = AnnotationBase + "duplicate-names"

	// AnnotationDisambiguator names the child disambiguating repeated siblings.
	AnnotationDisambiguator = AnnotationBase + "disambiguator"

	// AnnotationReportName is the metadata.name of the report ConfigMap.
	// Defaults to the actual ConfigMap's name with a "-report" suffix.
	AnnotationReportName = AnnotationBase + "report-name"

	// Annotations written to the actual ConfigMap and the report.
	AnnotationPassed       = AnnotationBase + "passed"
	AnnotationMatching     = AnnotationBase + "matching"
	AnnotationDifferences  = AnnotationBase + "differences"
	AnnotationAdditional   = AnnotationBase + "additional"
	AnnotationMissing      = AnnotationBase + "missing"
	AnnotationIncomparable = AnnotationBase + "incomparable"
)

const (
	// DefaultDataKey is the data entry read when no data-key annotation is set.
	DefaultDataKey = "records.json"
	// ReportDataKey is the data entry of the report ConfigMap.
	ReportDataKey = "report.json"

	roleExpected = "expected"
	roleActual   = "actual"
)

// TypeMeta describes an individual object in a ResourceList.
type TypeMeta struct {
	APIVersion string `yaml:"apiVersion" json:"apiVersion"`
	Kind       string `yaml:"kind" json:"kind"`
}

// ObjectMeta is metadata that all persisted resources must have.
type ObjectMeta struct {
	Name        string            `yaml:"name,omitempty" json:"name,omitempty"`
	Namespace   string            `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty" json:"annotations,omitempty"`
}

// ConfigMap represents a Kubernetes ConfigMap resource.
type ConfigMap struct {
	TypeMeta   `yaml:",inline" json:",inline"`
	ObjectMeta `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	Data       map[string]string `yaml:"data,omitempty" json:"data,omitempty"`
}

// ResourceList is the input/output format for KRM functions.
// See: https://github.com/kubernetes-sigs/kustomize/blob/master/cmd/config/docs/api-conventions/functions-spec.md
type ResourceList struct {
	APIVersion string           `yaml:"apiVersion" json:"apiVersion"`
	Kind       string           `yaml:"kind" json:"kind"`
	Items      []map[string]any `yaml:"items" json:"items"`
}

// comparisonGroup is an expected/actual ConfigMap pair sharing an ID.
// The source items are kept so fields outside [ConfigMap] survive the round trip.
type comparisonGroup struct {
	id           string
	expected     *ConfigMap
	actual       *ConfigMap
	expectedItem map[string]any
	actualItem   map[string]any
}

// Run executes the KRM function, reading a ResourceList from in and writing to out.
//
// Every ConfigMap group is compared; the actual ConfigMap is annotated with the outcome
// and a report ConfigMap is appended. Differences are reported, not failed on.
func Run(in io.Reader, out io.Writer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	rl, err := readResourceList(in)
	if err != nil {
		return fmt.Errorf("failed to read ResourceList: %w", err)
	}

	groups, passthrough, err := groupConfigMaps(rl)
	if err != nil {
		return fmt.Errorf("failed to group ConfigMaps: %w", err)
	}

	items := passthrough
	for _, group := range groups {
		compared, err := compareGroup(group, logger)
		if err != nil {
			return fmt.Errorf("failed to compare ConfigMap group %q: %w", group.id, err)
		}
		items = append(items, compared...)
	}

	outputRL := ResourceList{
		APIVersion: "config.kubernetes.io/v1",
		Kind:       "ResourceList",
		Items:      items,
	}
	if err := writeResourceList(out, outputRL); err != nil {
		return fmt.Errorf("failed to write ResourceList: %w", err)
	}
	return nil
}

// readResourceList reads and unmarshals a ResourceList from a reader.
func readResourceList(r io.Reader) (*ResourceList, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var rl ResourceList
	if err := yaml.Unmarshal(data, &rl); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ResourceList: %w", err)
	}
	return &rl, nil
}

// writeResourceList marshals and writes a ResourceList to a writer.
func writeResourceList(w io.Writer, rl ResourceList) error {
	data, err := yaml.Marshal(rl)
	if err != nil {
		return fmt.Errorf("failed to marshal ResourceList: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// groupConfigMaps pairs annotated ConfigMaps by ID. Other resources pass through.
// Groups are returned sorted by ID.
func groupConfigMaps(rl *ResourceList) ([]*comparisonGroup, []map[string]any, error) {
	byID := make(map[string]*comparisonGroup)
	var passthrough []map[string]any

	for _, item := range rl.Items {
		cm, isConfigMap, err := parseConfigMap(item)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse resource: %w", err)
		}
		if !isConfigMap {
			passthrough = append(passthrough, item)
			continue
		}

		id, ok := cm.Annotations[AnnotationID]
		if !ok || id == "" {
			passthrough = append(passthrough, item)
			continue
		}

		group := byID[id]
		if group == nil {
			group = &comparisonGroup{id: id}
			byID[id] = group
		}

		switch role := strings.ToLower(strings.TrimSpace(cm.Annotations[AnnotationRole])); role {
		case roleExpected:
			if group.expected != nil {
				return nil, nil, fmt.Errorf("ConfigMap group %q: ConfigMaps %q and %q are both expected",
					id, group.expected.Name, cm.Name)
			}
			group.expected, group.expectedItem = &cm, item
		case roleActual:
			if group.actual != nil {
				return nil, nil, fmt.Errorf("ConfigMap group %q: ConfigMaps %q and %q are both actual",
					id, group.actual.Name, cm.Name)
			}
			group.actual, group.actualItem = &cm, item
		case "":
			return nil, nil, fmt.Errorf("ConfigMap %q: missing required annotation %q", cm.Name, AnnotationRole)
		default:
			return nil, nil, fmt.Errorf("ConfigMap %q: invalid %q annotation %q (must be expected or actual)",
				cm.Name, AnnotationRole, role)
		}
	}

	ids := make([]string, 0, len(byID))
	for id, group := range byID {
		if group.expected == nil {
			return nil, nil, fmt.Errorf("ConfigMap group %q: no expected ConfigMap", id)
		}
		if group.actual == nil {
			return nil, nil, fmt.Errorf("ConfigMap group %q: no actual ConfigMap", id)
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	groups := make([]*comparisonGroup, len(ids))
	for i, id := range ids {
		groups[i] = byID[id]
	}
	return groups, passthrough, nil
}

// parseConfigMap attempts to parse a resource item as a ConfigMap.
func parseConfigMap(item map[string]any) (ConfigMap, bool, error) {
	apiVersion, _ := item["apiVersion"].(string)
	kind, _ := item["kind"].(string)

	if kind != "ConfigMap" {
		return ConfigMap{}, false, nil
	}

	// Marshal and unmarshal to convert map to ConfigMap struct
	data, err := yaml.Marshal(item)
	if err != nil {
		return ConfigMap{}, false, fmt.Errorf("failed to marshal item: %w", err)
	}

	var cm ConfigMap
	if err := yaml.Unmarshal(data, &cm); err != nil {
		return ConfigMap{}, false, fmt.Errorf("failed to unmarshal ConfigMap: %w", err)
	}

	if cm.APIVersion == "" {
		cm.APIVersion = apiVersion
	}
	if cm.Kind == "" {
		cm.Kind = kind
	}
	return cm, true, nil
}

// parseSettings reads the comparison settings from the expected ConfigMap's annotations.
func parseSettings(annotations map[string]string) (setup.Settings, error) {
	var s setup.Settings

	if keys, ok := annotations[AnnotationKeys]; ok && keys != "" {
		for _, key := range strings.Split(keys, ",") {
			if key = strings.TrimSpace(key); key != "" {
				s.Keys = append(s.Keys, key)
			}
		}
	}

	s.Records = annotations[AnnotationRecords]
	s.Disambiguator = annotations[AnnotationDisambiguator]

	if risk, ok := annotations[AnnotationRisk]; ok && risk != "" {
		enabled, err := strconv.ParseBool(risk)
		if err != nil {
			return s, fmt.Errorf("invalid %q annotation: %w", AnnotationRisk, err)
		}
		s.Risk = enabled
	}

	mode, err := setup.ParseDuplicateNames(annotations[AnnotationDuplicateNames])
	if err != nil {
		return s, fmt.Errorf("invalid %q annotation: %w", AnnotationDuplicateNames, err)
	}
	s.DuplicateNames = mode

	tolerance, err := setup.ParseTolerance(annotations[AnnotationTolerance])
	if err != nil {
		return s, fmt.Errorf("invalid %q annotation: %w", AnnotationTolerance, err)
	}
	s.Tolerance = tolerance

	return s, nil
}

// records loads the records of one ConfigMap.
func records(s setup.Settings, cm *ConfigMap, dataKey string) ([]keycompare.Node, error) {
	content, ok := cm.Data[dataKey]
	if !ok {
		return nil, fmt.Errorf("ConfigMap %q has no data key %q", cm.Name, dataKey)
	}
	nodes, err := s.Load(dataKey, []byte(content))
	if err != nil {
		return nil, fmt.Errorf("ConfigMap %q data key %q: %w", cm.Name, dataKey, err)
	}
	return nodes, nil
}

// compareGroup compares one pair and returns the expected ConfigMap, the annotated
// actual ConfigMap and the report ConfigMap.
func compareGroup(group *comparisonGroup, logger *zap.Logger) ([]map[string]any, error) {
	settings, err := parseSettings(group.expected.Annotations)
	if err != nil {
		return nil, fmt.Errorf("ConfigMap %q: %w", group.expected.Name, err)
	}
	dataKey := group.expected.Annotations[AnnotationDataKey]
	if dataKey == "" {
		dataKey = DefaultDataKey
	}

	setComparer, err := settings.SetComparer(logger.With(zap.String("group", group.id)))
	if err != nil {
		return nil, err
	}
	expected, err := records(settings, group.expected, dataKey)
	if err != nil {
		return nil, err
	}
	actual, err := records(settings, group.actual, dataKey)
	if err != nil {
		return nil, err
	}

	result, err := setComparer.Compare(settings.KeyFunc(), expected, actual)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, report.Build(result, report.Options{})); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	outcome := outcomeAnnotations(result)

	reportName := group.expected.Annotations[AnnotationReportName]
	if reportName == "" {
		reportName = group.actual.Name + "-report"
	}
	reportAnnotations := mergeAnnotations(nil, outcome)
	reportAnnotations[AnnotationID] = group.id
	reportCM := ConfigMap{
		TypeMeta: TypeMeta{
			APIVersion: "v1",
			Kind:       "ConfigMap",
		},
		ObjectMeta: ObjectMeta{
			Name:        reportName,
			Namespace:   group.actual.Namespace,
			Labels:      group.actual.Labels,
			Annotations: reportAnnotations,
		},
		Data: map[string]string{ReportDataKey: buf.String()},
	}

	if !result.Passed() {
		sum := result.Summary()
		logger.Info("comparison did not pass",
			zap.String("group", group.id),
			zap.Int("differences", sum.Differences),
			zap.Int("missing", sum.Missing),
			zap.Int("additional", sum.Additional),
			zap.Int("incomparable", sum.Incomparable))
	}

	reportItem, err := toItem(reportCM)
	if err != nil {
		return nil, err
	}
	actualItem := withAnnotations(group.actualItem, mergeAnnotations(group.actual.Annotations, outcome))
	return []map[string]any{group.expectedItem, actualItem, reportItem}, nil
}

// withAnnotations returns a copy of item whose metadata.annotations is replaced by
// annotations. Every other field is carried over untouched.
func withAnnotations(item map[string]any, annotations map[string]string) map[string]any {
	out := make(map[string]any, len(item))
	for k, v := range item {
		out[k] = v
	}
	metadata := make(map[string]any)
	if existing, ok := item["metadata"].(map[string]any); ok {
		for k, v := range existing {
			metadata[k] = v
		}
	}
	metadata["annotations"] = annotations
	out["metadata"] = metadata
	return out
}

func outcomeAnnotations(result *keycompare.Result) map[string]string {
	sum := result.Summary()
	return map[string]string{
		AnnotationPassed:       strconv.FormatBool(result.Passed()),
		AnnotationMatching:     strconv.Itoa(sum.Matching),
		AnnotationDifferences:  strconv.Itoa(sum.Differences),
		AnnotationAdditional:   strconv.Itoa(sum.Additional),
		AnnotationMissing:      strconv.Itoa(sum.Missing),
		AnnotationIncomparable: strconv.Itoa(sum.Incomparable),
	}
}

// mergeAnnotations returns a copy of base with extra applied on top.
func mergeAnnotations(base, extra map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// toItem converts a ConfigMap to the generic form used in a ResourceList.
func toItem(cm ConfigMap) (map[string]any, error) {
	data, err := yaml.Marshal(cm)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ConfigMap %q: %w", cm.Name, err)
	}

	var item map[string]any
	if err := yaml.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ConfigMap %q: %w", cm.Name, err)
	}
	return item, nil
}
