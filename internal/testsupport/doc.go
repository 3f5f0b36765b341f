// Package testsupport holds fixtures shared by package tests: temp-dir
// configs, opened content stores, manifest imports, and a manual clock.
package testsupport
