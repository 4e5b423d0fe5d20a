// Package native implements rcl.Library on top of the ROS 2 C libraries
// through cgo. It is compiled only with the rcl build tag and a sourced ROS 2
// Humble environment:
//
//	go build -tags rcl ./...
//
// Messages cross the boundary as native message pointers. Converters for
// the native library produce buffers implementing Message, and type supports
// implement MessageType, ServiceType or ActionType.
package native
