// Package testsupport holds helpers shared by package tests: isolated configs,
// job stores, and fixture files.
package testsupport
