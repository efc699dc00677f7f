// Package browser abstracts the engine that loads pages for the crawler.
//
// The crawler only needs a small capability set: navigate to a URL and
// read the resulting document, and check the status of an outbound link
// without navigating to it. Two engines implement it:
//
//   - Playwright: a headless Chromium driven by playwright-go. Pages are
//     rendered, so client-side content is audited as users see it.
//   - Static: a plain HTTP client with goquery. No JavaScript is executed,
//     which makes it fast and dependency-free at runtime.
//
// A Document is only valid until the next call to Navigate on the same
// Browser. Browsers are not safe for concurrent use; the crawler drives
// one navigation at a time.
package browser
