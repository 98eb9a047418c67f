// Package tekton implements the pipeline parts of the import flow and the
// pipeline panel of the topology sidebar.
//
// Import: [Client.TemplateForRuntime] finds the template pipeline shipped
// for a builder runtime, and [Client.CreatePipelineForImportFlow] copies it
// into the user's namespace together with the git and image resources the
// template expects.
//
// Sidebar: [Overview] turns a pipeline and its runs into the panel view
// model. [Client.ListRuns] and [Client.RerunLatest] back its data and its
// "start last run" action.
package tekton
