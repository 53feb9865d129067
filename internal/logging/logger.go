package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wipeout_enterprise/internal/config"
)

// Аудит-логгер с записью в файл и консоль
type AuditLogger struct {
	level   string
	file    *os.File
	console bool
	verbose bool
}

func NewAuditLogger(cfg *config.Config, verbose bool) (*AuditLogger, error) {
	l := &AuditLogger{
		level:   cfg.Logging.Level,
		console: cfg.Logging.Console,
		verbose: verbose,
	}

	// Автоматическое создание директории для логов
	if cfg.Logging.File != "" {
		logDir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			// Если не можем создать директорию, используем stdout
			fmt.Printf("[WARN] Не удалось создать директорию логов %s: %v\n", logDir, err)
			fmt.Printf("[WARN] Логи будут выводиться в stdout\n")
			return l, nil
		}

		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			// Если не можем открыть файл логов, используем stdout
			fmt.Printf("[WARN] Не удалось открыть файл логов %s: %v\n", cfg.Logging.File, err)
			fmt.Printf("[WARN] Логи будут выводиться в stdout\n")
			return l, nil
		}
		l.file = f
	}

	return l, nil
}

// Discard возвращает логгер, который ничего не пишет (для тестов и
// встраивания без настроенного логирования)
func Discard() *AuditLogger {
	return &AuditLogger{level: "FATAL"}
}

func (l *AuditLogger) Log(level, message string, fields ...interface{}) {
	if !l.shouldLog(level) {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	entry := fmt.Sprintf("[%s] [%s] %s", timestamp, level, message)

	if len(fields) > 0 {
		entry += fmt.Sprintf(" %v", fields)
	}

	if l.file != nil {
		l.file.WriteString(entry + "\n")
		l.file.Sync()
	}

	if l.console && (l.verbose || level == "ERROR" || level == "FATAL") {
		fmt.Println(entry)
	}
}

func (l *AuditLogger) shouldLog(level string) bool {
	levels := map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3, "FATAL": 4}
	current := levels[l.level]
	target := levels[level]
	return target >= current
}

func (l *AuditLogger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
