package server

import (
	"strings"

	"github.com/matzehuels/topoview/pkg/layout"
)

// Client message types.
const (
	msgResize = "resize"
	msgZoom   = "zoom"
	msgFit    = "fit"
	msgReset  = "reset"
	msgPan    = "pan"
	msgLayout = "layout"
)

// Server message types.
const (
	msgHello = "hello"
	msgFrame = "frame"
	msgError = "error"
)

// clientMessage is a viewport command. Fields apply per type:
//
//	{"type":"resize","width":1280,"height":720}
//	{"type":"zoom","factor":1.25,"x":640,"y":360}
//	{"type":"fit","padding":20}
//	{"type":"reset"}
//	{"type":"pan","node":"db"}
//	{"type":"layout","layout":"grid"}
type clientMessage struct {
	Type    string   `json:"type"`
	Width   float64  `json:"width,omitempty"`
	Height  float64  `json:"height,omitempty"`
	Factor  float64  `json:"factor,omitempty"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	Padding *float64 `json:"padding,omitempty"`
	Node    string   `json:"node,omitempty"`
	Layout  string   `json:"layout,omitempty"`
}

type serverMessage struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	SVG   string `json:"svg,omitempty"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

func layoutDirection(s string) layout.Direction {
	return layout.Direction(strings.ToUpper(s))
}
