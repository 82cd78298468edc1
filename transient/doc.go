// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors from HTTP request attempts as
// transient or non-transient, and reduces them to numeric error codes
// suitable for error messages and log fields.
//
// Package transient depends only on the standard library, so it doesn't
// bring any significant dependencies when imported as a standalone
// package.
package transient
