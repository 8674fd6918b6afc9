// Package fileutil holds small filesystem helpers: directory creation and an
// atomic copy used to archive session logs.
package fileutil
