// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the core poll-mode event reactor abstraction
// and an epoll-backed implementation for Linux.
package reactor
