package proxmox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// envelope is the wrapper every /api2/json response uses.
type envelope[T any] struct {
	Data T `json:"data"`
}

type nodeEntry struct {
	Node   string `json:"node"`
	Status string `json:"status"`
}

type nodeStatus struct {
	CPU    *float64 `json:"cpu"`
	Memory *struct {
		Used  uint64 `json:"used"`
		Total uint64 `json:"total"`
	} `json:"memory"`
	Uptime *uint64 `json:"uptime"`
}

// guestEntry covers both /qemu and /lxc list entries.
type guestEntry struct {
	VMID   flexUint `json:"vmid"`
	Name   string   `json:"name"`
	Status string   `json:"status"`
	CPU    float64  `json:"cpu"`
	Mem    flexUint `json:"mem"`
	MaxMem flexUint `json:"maxmem"`
	Uptime flexUint `json:"uptime"`
}

// flexUint accepts a JSON number or a numeric string. Some Proxmox releases
// return lxc vmids as strings.
type flexUint uint64

func (f *flexUint) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid numeric string %q", s)
		}
		*f = flexUint(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if n < 0 {
		n = 0
	}
	*f = flexUint(n)
	return nil
}
