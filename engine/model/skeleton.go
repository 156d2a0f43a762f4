package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// NewSkeleton validates a joint list and builds the lookup tables for it.
// Every joint's parent must be -1 or stored before the joint itself, so a single forward pass
// over the joints always visits parents first. Use SortJoints first when the source order is arbitrary.
//
// Parameters:
//   - joints: the joints in stored order
//
// Returns:
//   - *Skeleton: the validated skeleton
//   - error: ErrJointOrder or ErrInvalidJoint if the hierarchy is malformed
func NewSkeleton(joints []Joint) (*Skeleton, error) {
	s := &Skeleton{
		Joints:           make([]Joint, len(joints)),
		JointNameToIndex: make(map[string]int32, len(joints)),
	}
	copy(s.Joints, joints)

	for i, j := range s.Joints {
		switch {
		case j.ParentIndex < -1:
			return nil, fmt.Errorf("joint %d (%q) has parent %d: %w", i, j.Name, j.ParentIndex, common.ErrInvalidJoint)
		case j.ParentIndex >= int32(i):
			return nil, fmt.Errorf("joint %d (%q) has parent %d: %w", i, j.Name, j.ParentIndex, common.ErrJointOrder)
		case j.ParentIndex == -1:
			s.RootJointIndices = append(s.RootJointIndices, int32(i))
		}

		if j.Name == "" {
			continue
		}
		if prev, ok := s.JointNameToIndex[j.Name]; ok {
			common.LogWarn("duplicate joint name %q at %d, keeping index %d", j.Name, i, prev)
			continue
		}
		s.JointNameToIndex[j.Name] = int32(i)
	}

	return s, nil
}

// JointCount returns the number of joints in the skeleton.
func (s *Skeleton) JointCount() int {
	return len(s.Joints)
}

// JointIndex looks up a joint by name.
//
// Parameters:
//   - name: the joint name
//
// Returns:
//   - int32: the joint index, or -1 if no joint has that name
func (s *Skeleton) JointIndex(name string) int32 {
	if idx, ok := s.JointNameToIndex[name]; ok {
		return idx
	}
	return -1
}

// JointName returns the name of the joint at index, or an empty string if the index is out of range.
func (s *Skeleton) JointName(index int32) string {
	if index < 0 || int(index) >= len(s.Joints) {
		return ""
	}
	return s.Joints[index].Name
}

// ValidJoint reports whether index addresses a joint of this skeleton.
func (s *Skeleton) ValidJoint(index int32) bool {
	return index >= 0 && int(index) < len(s.Joints)
}

// RestPose returns a copy of the bind-pose local transforms.
//
// Returns:
//   - []Transform: one local transform per joint
func (s *Skeleton) RestPose() []Transform {
	pose := make([]Transform, len(s.Joints))
	for i, j := range s.Joints {
		pose[i] = j.BindLocal
	}
	return pose
}

// SortJoints reorders joints breadth-first from their roots so that parents precede children.
// Joints that cannot be reached from a root (cycles, dangling parents) are appended in their
// original order, which NewSkeleton will then reject.
//
// Parameters:
//   - joints: the joints in source order
//
// Returns:
//   - []Joint: the reordered joints with parent indices remapped
//   - map[int32]int32: the old-to-new index mapping, for remapping clip tracks
func SortJoints(joints []Joint) ([]Joint, map[int32]int32) {
	if len(joints) == 0 {
		return joints, make(map[int32]int32)
	}

	children := make(map[int32][]int32)
	queue := make([]int32, 0, len(joints))
	for i, j := range joints {
		if j.ParentIndex >= 0 && int(j.ParentIndex) < len(joints) {
			children[j.ParentIndex] = append(children[j.ParentIndex], int32(i))
		} else {
			queue = append(queue, int32(i))
		}
	}

	sorted := make([]int32, 0, len(joints))
	visited := make([]bool, len(joints))
	for len(queue) > 0 {
		oldIdx := queue[0]
		queue = queue[1:]
		if visited[oldIdx] {
			continue
		}
		visited[oldIdx] = true
		sorted = append(sorted, oldIdx)
		queue = append(queue, children[oldIdx]...)
	}

	for i := range joints {
		if !visited[i] {
			sorted = append(sorted, int32(i))
		}
	}

	oldToNew := make(map[int32]int32, len(sorted))
	for newIdx, oldIdx := range sorted {
		oldToNew[oldIdx] = int32(newIdx)
	}

	out := make([]Joint, len(joints))
	for newIdx, oldIdx := range sorted {
		j := joints[oldIdx]
		if mapped, ok := oldToNew[j.ParentIndex]; ok && j.ParentIndex >= 0 {
			j.ParentIndex = mapped
		}
		out[newIdx] = j
	}
	return out, oldToNew
}
