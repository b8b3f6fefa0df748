package utils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceAppendUnique(t *testing.T) {
	testCases := []struct {
		data   []string
		v      string
		result []string
	}{
		{data: nil, v: "eth0", result: []string{"eth0"}},
		{data: []string{"eth0"}, v: "eth1", result: []string{"eth0", "eth1"}},
		{data: []string{"eth0", "eth1"}, v: "eth0", result: []string{"eth0", "eth1"}},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d_%s", len(tc.data), tc.v), func(t *testing.T) {
			assert.Equal(t, tc.result, SliceAppendUnique(tc.data, tc.v))
		})
	}
}

func TestSliceString(t *testing.T) {
	assert.Equal(t, "", SliceString([]int{}))
	assert.Equal(t, "1,2,3", SliceString([]int{1, 2, 3}))
	assert.Equal(t, "nic0,nic1", SliceString([]string{"nic0", "nic1"}))
}
