package types

import (
	"github.com/toricodesthings/pdf-compression-service/internal/engine"
	"github.com/toricodesthings/pdf-compression-service/internal/quality"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

type HealthResponse struct {
	Status  string `json:"status"` // "healthy" | "degraded"
	Message string `json:"message"`
	Active  int64  `json:"active"`
	Version string `json:"version"`
}

type InfoResponse struct {
	GhostscriptPath    string                    `json:"ghostscript_path"`
	GhostscriptVersion string                    `json:"ghostscript_version,omitempty"`
	Engine             engine.Handle             `json:"engine"`
	QualityOptions     map[string]string         `json:"quality_options"`
	Presets            map[string]quality.Preset `json:"presets"`
	ExplicitImageFlags bool                      `json:"explicit_image_flags"`
	MaxFileSize        string                    `json:"max_file_size"`
	MaxFileSizeBytes   int64                     `json:"max_file_size_bytes"`
	EngineTimeout      string                    `json:"engine_timeout"`
}

type MetricsResponse struct {
	ActiveRequests int64  `json:"activeRequests"`
	TotalRequests  int64  `json:"totalRequests"`
	Compressions   int64  `json:"compressions"`
	Failures       int64  `json:"failures"`
	BytesIn        int64  `json:"bytesIn"`
	BytesOut       int64  `json:"bytesOut"`
	Goroutines     int    `json:"goroutines"`
	MemAllocMB     uint64 `json:"memAllocMB"`
	MemSysMB       uint64 `json:"memSysMB"`
}

type DebugResponse struct {
	BuildPath    string   `json:"build_path"`
	Files        []string `json:"files,omitempty"`
	StaticExists bool     `json:"static_exists"`
	Error        string   `json:"error,omitempty"`
}
