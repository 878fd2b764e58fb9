package rabbitmq_common

// Logger - минимальный логгер pkg-уровня, пары ключ-значение идут в keysAndValues.
// Сервис подключает свой логгер через мост в адаптере.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(err error, msg string, keysAndValues ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{})        {}
func (noopLogger) Info(string, ...interface{})         {}
func (noopLogger) Warn(string, ...interface{})         {}
func (noopLogger) Error(error, string, ...interface{}) {}

// NewNoopLogger - логгер по умолчанию, когда вызывающий его не передал
func NewNoopLogger() Logger {
	return noopLogger{}
}
