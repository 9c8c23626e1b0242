package response

// AppError 携带业务码与文案键的错误
type AppError struct {
	Code    int
	Key     string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Internal 是否为服务端错误
func (e *AppError) Internal() bool {
	return e.Code >= CodeInternal
}

// WrapError 包装错误，key 为 i18n 文案键
func WrapError(code int, key, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Key:     key,
		Message: message,
		Err:     err,
	}
}
