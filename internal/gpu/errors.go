package gpu

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/sysboard/sysboard/internal/errors"
)

const (
	ErrInitFailed     = errors.ErrorCode("gpu_init_failed")
	ErrDeviceNotFound = errors.ErrorCode("gpu_device_not_found")
	ErrShutdownFailed = errors.ErrorCode("gpu_shutdown_failed")
	ErrQueryFailed    = errors.ErrorCode("gpu_query_failed")
	ErrToolNotFound   = errors.ErrorCode("gpu_tool_not_found")
	ErrBadToolOutput  = errors.ErrorCode("gpu_bad_tool_output")
)

// nvmlError represents an NVML-specific error
type nvmlError struct {
	ret nvml.Return
}

func (e nvmlError) Error() string {
	return nvml.ErrorString(e.ret)
}

// newNVMLError creates an error from an NVML return code
func newNVMLError(ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return &nvmlError{ret: ret}
}

// isNVMLSuccess checks if a Return value indicates success
func isNVMLSuccess(ret nvml.Return) bool {
	return ret == nvml.SUCCESS
}
