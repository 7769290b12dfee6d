package main

import "time"

// SayFlags Flag structs to decouple cobra from logic for testing.
type SayFlags struct {
	Voice    string
	Speed    float64
	Lang     string
	Out      string
	Player   string
	NoDaemon bool
}

type TranscribeFlags struct {
	Model    string
	Language string
}

type RecordFlags struct {
	Out         string
	MaxDuration time.Duration
	Device      string
	Backend     string
}

type ModelPruneFlags struct {
	DryRun bool
	Keep   []string
}

type HistoryFlags struct {
	Limit int
	Kind  string
}

type DaemonLogsFlags struct {
	Lines  int
	Follow bool
}

type ConfigInitFlags struct {
	Out   string
	Force bool
}
