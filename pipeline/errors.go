package pipeline

import "errors"

var errNotDrained = errors.New("pixz: buffer pool did not fully drain")
