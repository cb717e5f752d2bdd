package catalog

import "strings"

// ResourceType names a searchable SageMaker resource type.
// Values are the SageMaker wire names.
type ResourceType string

const (
	TrainingJob              ResourceType = "TrainingJob"
	Experiment               ResourceType = "Experiment"
	ExperimentTrial          ResourceType = "ExperimentTrial"
	ExperimentTrialComponent ResourceType = "ExperimentTrialComponent"
	Endpoint                 ResourceType = "Endpoint"
	Model                    ResourceType = "Model"
	ModelPackage             ResourceType = "ModelPackage"
	ModelPackageGroup        ResourceType = "ModelPackageGroup"
	Pipeline                 ResourceType = "Pipeline"
	PipelineExecution        ResourceType = "PipelineExecution"
	FeatureGroup             ResourceType = "FeatureGroup"
	FeatureMetadata          ResourceType = "FeatureMetadata"
	Project                  ResourceType = "Project"
	HyperParameterTuningJob  ResourceType = "HyperParameterTuningJob"
	ModelCard                ResourceType = "ModelCard"
)

var resourceTypes = []ResourceType{
	TrainingJob, Experiment, ExperimentTrial, ExperimentTrialComponent,
	Endpoint, Model, ModelPackage, ModelPackageGroup,
	Pipeline, PipelineExecution, FeatureGroup, FeatureMetadata,
	Project, HyperParameterTuningJob, ModelCard,
}

// ResourceTypes returns every known resource type in declaration order.
func ResourceTypes() []ResourceType {
	out := make([]ResourceType, len(resourceTypes))
	copy(out, resourceTypes)
	return out
}

// IsValid reports whether rt is a known resource type.
func (rt ResourceType) IsValid() bool {
	for _, t := range resourceTypes {
		if t == rt {
			return true
		}
	}
	return false
}

// ParseResourceType maps a wire name to a ResourceType, ignoring case.
func ParseResourceType(s string) (ResourceType, bool) {
	for _, t := range resourceTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// Enum is a closed set of allowed values for a Text property,
// e.g. the values of TrainingJobStatus.
type Enum struct {
	name   string
	values []string
}

func newEnum(name string, values ...string) Enum {
	return Enum{name: name, values: values}
}

// Name returns the enum name.
func (e Enum) Name() string { return e.name }

// Values returns the allowed values in declaration order.
func (e Enum) Values() []string {
	out := make([]string, len(e.values))
	copy(out, e.values)
	return out
}

// IsValid reports whether v is one of the allowed values (case-sensitive).
func (e Enum) IsValid(v string) bool {
	for _, allowed := range e.values {
		if allowed == v {
			return true
		}
	}
	return false
}

// Allowed values of the status properties.
var (
	TrainingJobStatus = newEnum("TrainingJobStatus",
		"InProgress", "Completed", "Failed", "Stopping", "Stopped")

	HyperParameterTuningJobStatus = newEnum("HyperParameterTuningJobStatus",
		"Completed", "InProgress", "Failed", "Stopped", "Stopping", "Deleting", "DeleteFailed")

	EndpointStatus = newEnum("EndpointStatus",
		"OutOfService", "Creating", "Updating", "SystemUpdating", "RollingBack",
		"InService", "Deleting", "Failed", "UpdateRollbackFailed")

	ModelPackageStatus = newEnum("ModelPackageStatus",
		"Pending", "InProgress", "Completed", "Failed", "Deleting")

	ModelPackageGroupStatus = newEnum("ModelPackageGroupStatus",
		"Pending", "InProgress", "Completed", "Failed", "Deleting", "DeleteFailed")

	ModelApprovalStatus = newEnum("ModelApprovalStatus",
		"Approved", "Rejected", "PendingManualApproval")

	PipelineExecutionStatus = newEnum("PipelineExecutionStatus",
		"Executing", "Stopping", "Stopped", "Failed", "Succeeded")

	PipelineStatus = newEnum("PipelineStatus", "Active", "Deleting")

	TrialComponentStatus = newEnum("TrialComponentPrimaryStatus",
		"InProgress", "Completed", "Failed", "Stopping", "Stopped")

	FeatureGroupStatus = newEnum("FeatureGroupStatus",
		"Creating", "Created", "CreateFailed", "Deleting", "DeleteFailed")

	ProjectStatus = newEnum("ProjectStatus",
		"Pending", "CreateInProgress", "CreateCompleted", "CreateFailed",
		"DeleteInProgress", "DeleteFailed", "DeleteCompleted",
		"UpdateInProgress", "UpdateCompleted", "UpdateFailed")

	ModelCardStatus = newEnum("ModelCardStatus",
		"Draft", "PendingReview", "Approved", "Archived")
)
