package compiler

import "github.com/ssbking/personal-digital-authority/internal/model"

// Capability identifiers. The set is closed; every entry maps to exactly one
// reference executor family.
const (
	CapFileMove   = "FILE_MOVE"
	CapFileCopy   = "FILE_COPY"
	CapFileDelete = "FILE_DELETE"

	CapMediaPlay  = "MEDIA_PLAY"
	CapMediaPause = "MEDIA_PAUSE"
	CapMediaStop  = "MEDIA_STOP"
	CapMediaSeek  = "MEDIA_SEEK"

	CapAppLaunch = "APP_LAUNCH"
	CapAppFocus  = "APP_FOCUS"
	CapAppClose  = "APP_CLOSE"

	CapNavigateApp    = "NAVIGATE_APP"
	CapNavigateWindow = "NAVIGATE_WINDOW"
	CapNavigateURL    = "NAVIGATE_URL"
	CapNavigateFile   = "NAVIGATE_FILE"

	CapSearchFiles    = "SEARCH_FILES"
	CapSearchEmails   = "SEARCH_EMAILS"
	CapSearchDatasets = "SEARCH_DATASETS"
)

// tripleKey is the static capability lookup key. Actions are stored in
// their canonical upper-case spelling.
type tripleKey struct {
	class  model.VerbClass
	object model.ObjectType
	action string
}

// capabilityTable is the closed (verb.class, object.type, verb.action) →
// capability_id mapping. Missing entries are UNKNOWN_CAPABILITY.
var capabilityTable = map[tripleKey]string{
	{model.VerbMutate, model.ObjectFile, "MOVE"}:        CapFileMove,
	{model.VerbMutate, model.ObjectFile, "DELETE"}:      CapFileDelete,
	{model.VerbDisseminate, model.ObjectFile, "COPY"}:   CapFileCopy,
	{model.VerbMutate, model.ObjectDevice, "PLAY"}:      CapMediaPlay,
	{model.VerbMutate, model.ObjectDevice, "PAUSE"}:     CapMediaPause,
	{model.VerbMutate, model.ObjectDevice, "STOP"}:      CapMediaStop,
	{model.VerbMutate, model.ObjectDevice, "SEEK"}:      CapMediaSeek,
	{model.VerbMutate, model.ObjectDevice, "LAUNCH_APP"}: CapAppLaunch,
	{model.VerbMutate, model.ObjectDevice, "FOCUS_APP"}:  CapAppFocus,
	{model.VerbMutate, model.ObjectDevice, "CLOSE_APP"}:  CapAppClose,
	{model.VerbTransform, model.ObjectDevice, "NAVIGATE_APP"}:    CapNavigateApp,
	{model.VerbTransform, model.ObjectDevice, "NAVIGATE_WINDOW"}: CapNavigateWindow,
	{model.VerbTransform, model.ObjectDevice, "NAVIGATE_URL"}:    CapNavigateURL,
	{model.VerbTransform, model.ObjectDevice, "NAVIGATE_FILE"}:   CapNavigateFile,
	{model.VerbTransform, model.ObjectFolder, "SEARCH"}:  CapSearchFiles,
	{model.VerbTransform, model.ObjectEmail, "SEARCH"}:   CapSearchEmails,
	{model.VerbTransform, model.ObjectDataset, "SEARCH"}: CapSearchDatasets,
}

// inputSource says where a bound input value comes from.
type inputSource int

const (
	fromObjectIdentifier inputSource = iota // the AST object identifier, verbatim
	fromSupplement                          // caller-supplied supplemental binding, verbatim
)

// inputSpec is one required input of a capability schema.
type inputSpec struct {
	key    string
	source inputSource
}

// bindingSchemas dictate, per capability, the well-known input keys and
// their sources. Values are copied verbatim; no transformation, no
// normalization, no inference.
var bindingSchemas = map[string][]inputSpec{
	CapFileMove:   {{"source_path", fromObjectIdentifier}, {"destination_path", fromSupplement}},
	CapFileCopy:   {{"source_path", fromObjectIdentifier}, {"destination_path", fromSupplement}},
	CapFileDelete: {{"source_path", fromObjectIdentifier}},

	CapMediaPlay:  {{"media_uri", fromObjectIdentifier}, {"target_device", fromSupplement}},
	CapMediaPause: {{"media_uri", fromObjectIdentifier}, {"target_device", fromSupplement}},
	CapMediaStop:  {{"media_uri", fromObjectIdentifier}, {"target_device", fromSupplement}},
	CapMediaSeek:  {{"media_uri", fromObjectIdentifier}, {"target_device", fromSupplement}, {"position_seconds", fromSupplement}},

	CapAppLaunch: {{"app_id", fromObjectIdentifier}, {"target_environment", fromSupplement}},
	CapAppFocus:  {{"app_id", fromObjectIdentifier}, {"target_environment", fromSupplement}},
	CapAppClose:  {{"app_id", fromObjectIdentifier}, {"target_environment", fromSupplement}},

	CapNavigateApp:    navigationSchema,
	CapNavigateWindow: navigationSchema,
	CapNavigateURL:    navigationSchema,
	CapNavigateFile:   navigationSchema,

	CapSearchFiles:    searchSchema,
	CapSearchEmails:   searchSchema,
	CapSearchDatasets: searchSchema,
}

var navigationSchema = []inputSpec{
	{"target_id", fromObjectIdentifier},
	{"target_type", fromSupplement},
	{"navigation_mode", fromSupplement},
	{"focus_policy", fromSupplement},
}

var searchSchema = []inputSpec{
	{"target_scope", fromObjectIdentifier},
	{"query", fromSupplement},
	{"max_results", fromSupplement},
}
