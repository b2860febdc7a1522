package logging

import "time"

// Fields is a builder for structured log fields, mirroring the shape a zap
// SugaredLogger's `.Infow(msg, keysAndValues...)` wants, while staying
// usable as a plain map for assertions in tests.
type Fields map[string]interface{}

func NewFields() Fields {
	return Fields{}
}

func (f Fields) Component(name string) Fields {
	f["component"] = name
	return f
}

func (f Fields) Operation(name string) Fields {
	f["operation"] = name
	return f
}

func (f Fields) Resource(resourceType, name string) Fields {
	f["resource_type"] = resourceType
	if name != "" {
		f["resource_name"] = name
	}
	return f
}

func (f Fields) Duration(d time.Duration) Fields {
	f["duration_ms"] = d.Milliseconds()
	return f
}

func (f Fields) Error(err error) Fields {
	if err != nil {
		f["error"] = err.Error()
	}
	return f
}

func (f Fields) RequestID(id string) Fields {
	f["request_id"] = id
	return f
}

func (f Fields) JobID(id string) Fields {
	f["job_id"] = id
	return f
}

func (f Fields) StatusCode(code int) Fields {
	f["status_code"] = code
	return f
}

func (f Fields) Method(method string) Fields {
	f["method"] = method
	return f
}

func (f Fields) URL(url string) Fields {
	f["url"] = url
	return f
}

func (f Fields) Count(n int) Fields {
	f["count"] = n
	return f
}

func (f Fields) Size(bytes int64) Fields {
	f["size_bytes"] = bytes
	return f
}

func (f Fields) Custom(key string, value interface{}) Fields {
	f[key] = value
	return f
}

// ToZapArgs flattens the fields into the alternating key/value slice
// zap.SugaredLogger methods expect.
func (f Fields) ToZapArgs() []interface{} {
	args := make([]interface{}, 0, len(f)*2)
	for k, v := range f {
		args = append(args, k, v)
	}
	return args
}

// DatabaseFields is a shorthand for the cache repository's query logging.
func DatabaseFields(operation, table string) Fields {
	return NewFields().Component("database").Operation(operation).Resource("table", table)
}

// HTTPFields is a shorthand for the admin server's access logging.
func HTTPFields(method, url string, statusCode int) Fields {
	return NewFields().Component("http").Method(method).URL(url).StatusCode(statusCode)
}

// PipelineFields is a shorthand for per-stage pipeline logging (spec §4.7).
func PipelineFields(jobID, step string) Fields {
	return NewFields().Component("pipeline").JobID(jobID).Operation(step)
}

// VerificationFields is a shorthand for the batched-verifier's call logging.
func VerificationFields(batchIndex, batchCount, citationCount int) Fields {
	return NewFields().Component("verify").
		Custom("batch_index", batchIndex).
		Custom("batch_count", batchCount).
		Count(citationCount)
}

// PerformanceFields is a shorthand for timing a named operation.
func PerformanceFields(operation string, d time.Duration, success bool) Fields {
	return NewFields().Component("performance").Operation(operation).Duration(d).Custom("success", success)
}
