package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key holding a user's active session JTI.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// ExamPaperKey returns the cache key for an exam's student-facing paper payload.
func (r *CacheKeyStruct) ExamPaperKey(examID string) string {
	return fmt.Sprintf("exam:%s:paper", examID)
}

// MonitorSignalChannel returns the pub/sub channel carrying signaling frames
// published by the monitored student.
func (r *CacheKeyStruct) MonitorSignalChannel(studentID int) string {
	return fmt.Sprintf("monitor:student:%d:signal", studentID)
}

// MonitorControlChannel returns the pub/sub channel carrying frames sent back
// to the monitored student by admin watchers.
func (r *CacheKeyStruct) MonitorControlChannel(studentID int) string {
	return fmt.Sprintf("monitor:student:%d:control", studentID)
}

var CacheKey = NewCacheKeyStruct()
