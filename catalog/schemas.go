package catalog

import "github.com/hugr-lab/sagesearch/filter"

// Shared property names.
const (
	PropCreationTime     = "CreationTime"
	PropLastModifiedTime = "LastModifiedTime"
	PropTagsPrefix       = "Tags."
)

const (
	text      = filter.TypeText
	number    = filter.TypeNumber
	timestamp = filter.TypeTimestamp
)

// declaration lists the searchable properties of one resource type.
type declaration struct {
	props    map[string]filter.PropertyType
	prefixes map[string]filter.PropertyType
	enums    map[string]Enum
}

var declarations = map[ResourceType]declaration{
	TrainingJob: {
		props: map[string]filter.PropertyType{
			"TrainingJobName":                          text,
			"TrainingJobArn":                           text,
			"TrainingJobStatus":                        text,
			"SecondaryStatus":                          text,
			"FailureReason":                            text,
			"RoleArn":                                  text,
			"TuningJobArn":                             text,
			"AlgorithmSpecification.TrainingImage":     text,
			"AlgorithmSpecification.TrainingInputMode": text,
			"ResourceConfig.InstanceType":              text,
			"ResourceConfig.InstanceCount":             number,
			"ResourceConfig.VolumeSizeInGB":            number,
			"StoppingCondition.MaxRuntimeInSeconds":    number,
			"TrainingTimeInSeconds":                    number,
			"BillableTimeInSeconds":                    number,
			"TrainingStartTime":                        timestamp,
			"TrainingEndTime":                          timestamp,
		},
		prefixes: map[string]filter.PropertyType{
			"Metrics.":         number,
			"HyperParameters.": number,
		},
		enums: map[string]Enum{"TrainingJobStatus": TrainingJobStatus},
	},
	HyperParameterTuningJob: {
		props: map[string]filter.PropertyType{
			"HyperParameterTuningJobName":                                       text,
			"HyperParameterTuningJobArn":                                        text,
			"HyperParameterTuningJobStatus":                                     text,
			"HyperParameterTuningEndTime":                                       timestamp,
			"BestTrainingJob.TrainingJobName":                                   text,
			"BestTrainingJob.FinalHyperParameterTuningJobObjectiveMetric.Value": number,
			"TrainingJobStatusCounters.Completed":                               number,
			"TrainingJobStatusCounters.Failed":                                  number,
		},
		enums: map[string]Enum{"HyperParameterTuningJobStatus": HyperParameterTuningJobStatus},
	},
	Experiment: {
		props: map[string]filter.PropertyType{
			"ExperimentName":    text,
			"ExperimentArn":     text,
			"DisplayName":       text,
			"Description":       text,
			"Source.SourceArn":  text,
			"Source.SourceType": text,
		},
	},
	ExperimentTrial: {
		props: map[string]filter.PropertyType{
			"TrialName":         text,
			"TrialArn":          text,
			"DisplayName":       text,
			"ExperimentName":    text,
			"Source.SourceArn":  text,
			"Source.SourceType": text,
		},
	},
	ExperimentTrialComponent: {
		props: map[string]filter.PropertyType{
			"TrialComponentName":   text,
			"TrialComponentArn":    text,
			"DisplayName":          text,
			"Status.PrimaryStatus": text,
			"Source.SourceArn":     text,
			"Source.SourceType":    text,
			"StartTime":            timestamp,
			"EndTime":              timestamp,
		},
		prefixes: map[string]filter.PropertyType{
			"Metrics.":    number,
			"Parameters.": text,
		},
		enums: map[string]Enum{"Status.PrimaryStatus": TrialComponentStatus},
	},
	Endpoint: {
		props: map[string]filter.PropertyType{
			"EndpointName":       text,
			"EndpointArn":        text,
			"EndpointConfigName": text,
			"EndpointStatus":     text,
			"FailureReason":      text,
		},
		enums: map[string]Enum{"EndpointStatus": EndpointStatus},
	},
	Model: {
		props: map[string]filter.PropertyType{
			"ModelName":                     text,
			"ModelArn":                      text,
			"ExecutionRoleArn":              text,
			"PrimaryContainer.Image":        text,
			"PrimaryContainer.ModelDataUrl": text,
			"EnableNetworkIsolation":        text,
		},
	},
	ModelPackage: {
		props: map[string]filter.PropertyType{
			"ModelPackageName":        text,
			"ModelPackageArn":         text,
			"ModelPackageGroupName":   text,
			"ModelPackageVersion":     number,
			"ModelPackageDescription": text,
			"ModelPackageStatus":      text,
			"ModelApprovalStatus":     text,
			"Domain":                  text,
			"Task":                    text,
		},
		prefixes: map[string]filter.PropertyType{
			"CustomerMetadataProperties.": text,
		},
		enums: map[string]Enum{
			"ModelPackageStatus":  ModelPackageStatus,
			"ModelApprovalStatus": ModelApprovalStatus,
		},
	},
	ModelPackageGroup: {
		props: map[string]filter.PropertyType{
			"ModelPackageGroupName":        text,
			"ModelPackageGroupArn":         text,
			"ModelPackageGroupDescription": text,
			"ModelPackageGroupStatus":      text,
		},
		enums: map[string]Enum{"ModelPackageGroupStatus": ModelPackageGroupStatus},
	},
	Pipeline: {
		props: map[string]filter.PropertyType{
			"PipelineName":        text,
			"PipelineArn":         text,
			"PipelineDisplayName": text,
			"PipelineDescription": text,
			"PipelineStatus":      text,
			"RoleArn":             text,
			"LastRunTime":         timestamp,
		},
		enums: map[string]Enum{"PipelineStatus": PipelineStatus},
	},
	PipelineExecution: {
		props: map[string]filter.PropertyType{
			"PipelineArn":                  text,
			"PipelineExecutionArn":         text,
			"PipelineExecutionDisplayName": text,
			"PipelineExecutionStatus":      text,
			"FailureReason":                text,
		},
		prefixes: map[string]filter.PropertyType{
			"PipelineParameters.": text,
		},
		enums: map[string]Enum{"PipelineExecutionStatus": PipelineExecutionStatus},
	},
	FeatureGroup: {
		props: map[string]filter.PropertyType{
			"FeatureGroupName":                         text,
			"FeatureGroupArn":                          text,
			"FeatureGroupStatus":                       text,
			"RecordIdentifierFeatureName":              text,
			"EventTimeFeatureName":                     text,
			"OfflineStoreConfig.S3StorageConfig.S3Uri": text,
		},
		enums: map[string]Enum{"FeatureGroupStatus": FeatureGroupStatus},
	},
	FeatureMetadata: {
		props: map[string]filter.PropertyType{
			"FeatureGroupName": text,
			"FeatureGroupArn":  text,
			"FeatureName":      text,
			"FeatureType":      text,
			"Description":      text,
		},
		prefixes: map[string]filter.PropertyType{
			"Parameters.": text,
		},
	},
	Project: {
		props: map[string]filter.PropertyType{
			"ProjectName":        text,
			"ProjectArn":         text,
			"ProjectId":          text,
			"ProjectDescription": text,
			"ProjectStatus":      text,
		},
		enums: map[string]Enum{"ProjectStatus": ProjectStatus},
	},
	ModelCard: {
		props: map[string]filter.PropertyType{
			"ModelCardName":    text,
			"ModelCardArn":     text,
			"ModelCardVersion": number,
			"ModelCardStatus":  text,
			"ModelId":          text,
			"RiskRating":       text,
		},
		enums: map[string]Enum{"ModelCardStatus": ModelCardStatus},
	},
}

// DefaultSchema returns the declared searchable properties of rt.
// Every type also declares CreationTime, LastModifiedTime and the
// Tags. prefix. Returns nil for an unknown type.
func DefaultSchema(rt ResourceType) *filter.Schema {
	d, ok := declarations[rt]
	if !ok {
		return nil
	}
	b := filter.NewSchemaBuilder().
		Property(PropCreationTime, timestamp).
		Property(PropLastModifiedTime, timestamp).
		Prefix(PropTagsPrefix, text)
	for name, typ := range d.props {
		b.Property(name, typ)
	}
	for prefix, typ := range d.prefixes {
		b.Prefix(prefix, typ)
	}
	return b.Build()
}

// DefaultSchemas returns DefaultSchema for every known resource type.
func DefaultSchemas() map[ResourceType]*filter.Schema {
	out := make(map[ResourceType]*filter.Schema, len(resourceTypes))
	for _, rt := range resourceTypes {
		out[rt] = DefaultSchema(rt)
	}
	return out
}

// Enums returns the closed value sets of rt's status properties,
// keyed by property name.
func Enums(rt ResourceType) map[string]Enum {
	d := declarations[rt]
	out := make(map[string]Enum, len(d.enums))
	for name, e := range d.enums {
		out[name] = e
	}
	return out
}
