// Package msgs defines the telemetry messages published by the robot.
package msgs

import (
	"github.com/golang/protobuf/proto"
)

// RobotState is published on every mission change and every event.
type RobotState struct {
	Robot     string   `protobuf:"bytes,1,opt,name=robot,proto3" json:"robot,omitempty"`
	Tick      uint64   `protobuf:"varint,2,opt,name=tick,proto3" json:"tick,omitempty"`
	TimeMs    int64    `protobuf:"varint,3,opt,name=time_ms,proto3" json:"time_ms,omitempty"`
	State     string   `protobuf:"bytes,4,opt,name=state,proto3" json:"state,omitempty"`
	Target    int32    `protobuf:"varint,5,opt,name=target,proto3" json:"target,omitempty"`
	HasTarget bool     `protobuf:"varint,6,opt,name=has_target,proto3" json:"has_target,omitempty"`
	Position  int32    `protobuf:"varint,7,opt,name=position,proto3" json:"position,omitempty"`
	Events    []string `protobuf:"bytes,8,rep,name=events,proto3" json:"events,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *RobotState) ProtoMessage() {}

// Reset implements proto.Message.
func (m *RobotState) Reset() { *m = RobotState{} }

// String implements proto.Message.
func (m *RobotState) String() string { return proto.CompactTextString(m) }

// Encode serializes the message.
func (m *RobotState) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeRobotState parses a serialized RobotState.
func DecodeRobotState(data []byte) (*RobotState, error) {
	m := &RobotState{}
	if err := proto.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
