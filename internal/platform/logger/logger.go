package logger

import (
	"log"
	"os"
)

var (
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
)

func init() {
	infoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	warnLogger = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	errorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
}

func Info(msg string, v ...interface{}) {
	infoLogger.Printf(msg, v...)
}

func Warn(msg string, v ...interface{}) {
	warnLogger.Printf(msg, v...)
}

func Error(msg string, err error, v ...interface{}) {
	if err != nil {
		errorLogger.Printf(msg+": %v", append(v, err)...)
	} else {
		errorLogger.Printf(msg, v...)
	}
}

func Fatal(msg string, err error) {
	if err != nil {
		errorLogger.Fatalf(msg+": %v", err)
	}
	errorLogger.Fatal(msg)
}
