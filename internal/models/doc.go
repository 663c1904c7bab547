// Package models defines the domain entities shared by the client, the sync layer and the backend.
//
// The package contains:
//   - [Song] : one entry of a stage list, numbered by position
//   - [StageList] : a named list of songs with its id counter; the unit of persistence and sync
//   - [Settings] : the metronome sound and volume preference record
//   - [Workspace] : the editing state stored under individual client keys
//   - [User] : backend accounts
//
// Patch types ([ListPatch], [SettingsPatch]) carry partial updates across the REST boundary.
// The [Repository] interface defines CRUD access for keyed collections.
package models
