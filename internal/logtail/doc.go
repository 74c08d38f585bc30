// Package logtail reads the newest entries of the shelf log file for the
// logs command. Lines are expected in the logrus text format written by
// package logger, which lets entries be filtered by level or session.
package logtail
