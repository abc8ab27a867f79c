package models

import "time"

type HealthCheck struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Uptime    float64     `json:"uptime"`
	Memory    MemoryStats `json:"memory"`
}

// MemoryStats values are in megabytes.
type MemoryStats struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"totalAlloc"`
	Sys        uint64 `json:"sys"`
	HeapInuse  uint64 `json:"heapInuse"`
}

type DetailedHealthCheck struct {
	HealthCheck
	GoVersion    string            `json:"goVersion"`
	Goroutines   int               `json:"goroutines"`
	Codec        string            `json:"codec"`
	Environment  string            `json:"environment"`
	Services     map[string]string `json:"services"`
	WorkerPool   any               `json:"workerPool,omitempty"`
	EventBacklog *int              `json:"eventBacklog,omitempty"`
}
