//go:build e2e

// Package e2e provides end-to-end tests for the login check.
//
// These tests are isolated from the standard test suite via build tags.
// They require a Chrome browser (auto-downloaded by Rod if not present)
// and are intended for CI pipelines or explicit local testing.
//
// Running E2E tests:
//
//	go test -tags=e2e ./e2e/...
//
// Running all tests except E2E:
//
//	go test ./...
//
// By default each test starts the reference-site server on a random port.
// Set LOGINCHECK_TARGET_URL to run the same scenarios against a deployed
// site instead.
//
// E2E tests use:
//   - Rod and chromedp for browser automation (Chrome DevTools Protocol)
//   - the reference-site server as the target
//   - pkg/login for the scenario itself
//
// Test isolation:
// Every run launches its own browser instance, so runs share no cookies.
package e2e
