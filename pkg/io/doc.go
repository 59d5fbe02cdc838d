// Package io reads and writes task datasets as JSON or YAML files.
//
// A dataset is a [task.Snapshot]:
//
//	{
//	  "tasks": [
//	    {"id": "design", "title": "Design", "start_date": "2026-01-05", "due_date": "2026-01-09"},
//	    {"id": "build", "title": "Build", "blocked_by": ["design"]}
//	  ],
//	  "dependencies": [
//	    {"task_id": "ship", "blocked_by_id": "build"}
//	  ]
//	}
//
// Edges may be given on each task as blocked_by, in the top-level
// dependencies list, or both. The YAML form uses the same keys.
//
// Every read is checked against an embedded JSON schema and then against
// the snapshot's own rules (unique ids, known endpoints, no self edges).
// Cycles are not checked here; dependency insertion is where cycles are
// refused.
//
// The format is picked from the file extension by [ImportFile] and
// [ExportFile]: .json, .yaml or .yml.
//
// [task.Snapshot]: github.com/matzehuels/stackplan/pkg/task.Snapshot
package io
