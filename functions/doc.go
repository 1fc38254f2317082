// Package functions implements the scoring pipeline and the selection of
// function implementations.
//
// A ScoreBuilderDotProduct computes score[i] = dot(query, candidate[i]) either
// as a device command (DeviceScoreFunction) or synchronously on the host
// (HostScoreFunction). A SelectorAccept turns the scores into an accept or
// reject decision per candidate.
//
// The same scoring model ranks implementations: each Impl fills a
// FunctionScore in Accept, the builder reduces it to a scalar and the
// Dispatcher runs the highest ranked implementation.
package functions
