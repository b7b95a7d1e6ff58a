// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeTimeout,
//	    "failed to sample gpm metrics",
//	    ctx.Err(),
//	    map[string]interface{}{
//	        "target": target.String(),
//	        "node": nodeName,
//	    },
//	)
package errors
