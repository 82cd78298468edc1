// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for the timeout of each individual
// attempt within a verb call. By default no timeout is set and the
// transport's own connect and read limits are the only bound.
package timeout
