// Package model defines the data passed between the fetch, analysis,
// report and history packages of deeptext.
//
// The main types are:
//   - Document: a fetched HTML body split into lines
//   - Analysis: the record of one analysis of one URL
//   - Outcome: how an analysis ended
//
// The types serialize to JSON for reports and for the history database.
package model
