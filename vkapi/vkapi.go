// Package vkapi mirrors the Vulkan records and enum values that the emulation
// layer passes across the ABI boundary to the native driver.
//
// The structs here are field-for-field copies of the C declarations in
// vulkan_core.h: same field order, raw pointers where the C API takes
// pointers, and 64-bit handles. No Go binding is used because the driver
// consumes these bytes directly, and because the tensor extension records in
// tensor_arm.go do not exist in any binding.
package vkapi

import (
	"fmt"
	"unsafe"
)

// DeviceSize is VkDeviceSize.
type DeviceSize uint64

// WholeSize is VK_WHOLE_SIZE: address the full remaining range of a buffer.
const WholeSize = ^DeviceSize(0)

// Non-dispatchable handles (VK_DEFINE_NON_DISPATCHABLE_HANDLE).
type (
	Buffer        uint64
	BufferView    uint64
	Sampler       uint64
	ImageView     uint64
	DescriptorSet uint64
)

// StructureType is VkStructureType.
type StructureType uint32

const (
	StructureTypeWriteDescriptorSet StructureType = 35
)

// DescriptorType is VkDescriptorType.
type DescriptorType uint32

const (
	DescriptorTypeSampler              DescriptorType = 0
	DescriptorTypeCombinedImageSampler DescriptorType = 1
	DescriptorTypeSampledImage         DescriptorType = 2
	DescriptorTypeStorageImage         DescriptorType = 3
	DescriptorTypeUniformTexelBuffer   DescriptorType = 4
	DescriptorTypeStorageTexelBuffer   DescriptorType = 5
	DescriptorTypeUniformBuffer        DescriptorType = 6
	DescriptorTypeStorageBuffer        DescriptorType = 7
	DescriptorTypeUniformBufferDynamic DescriptorType = 8
	DescriptorTypeStorageBufferDynamic DescriptorType = 9
	DescriptorTypeInputAttachment      DescriptorType = 10
)

// ImageLayout is VkImageLayout.
type ImageLayout uint32

const (
	ImageLayoutUndefined             ImageLayout = 0
	ImageLayoutGeneral               ImageLayout = 1
	ImageLayoutShaderReadOnlyOptimal ImageLayout = 5
)

// ShaderStageFlags is VkShaderStageFlags.
type ShaderStageFlags uint32

const (
	ShaderStageVertexBit   ShaderStageFlags = 0x00000001
	ShaderStageFragmentBit ShaderStageFlags = 0x00000010
	ShaderStageComputeBit  ShaderStageFlags = 0x00000020
	ShaderStageAll         ShaderStageFlags = 0x7FFFFFFF
)

// DescriptorBindingFlags is VkDescriptorBindingFlags (promoted from
// VK_EXT_descriptor_indexing).
type DescriptorBindingFlags uint32

const (
	DescriptorBindingUpdateAfterBindBit          DescriptorBindingFlags = 0x00000001
	DescriptorBindingUpdateUnusedWhilePendingBit DescriptorBindingFlags = 0x00000002
	DescriptorBindingPartiallyBoundBit           DescriptorBindingFlags = 0x00000004
)

// Format is VkFormat. Only the single-channel formats the layer maps tensor
// element types onto are declared.
type Format uint32

const (
	FormatUndefined Format = 0
	FormatR8Uint    Format = 13
	FormatR8Sint    Format = 14
	FormatR16Uint   Format = 74
	FormatR16Sint   Format = 75
	FormatR16Sfloat Format = 76
	FormatR32Uint   Format = 98
	FormatR32Sint   Format = 99
	FormatR32Sfloat Format = 100
	FormatR64Uint   Format = 110
	FormatR64Sint   Format = 111
	FormatR64Sfloat Format = 112
)

var formatNames = map[Format]string{
	FormatUndefined: "VK_FORMAT_UNDEFINED",
	FormatR8Uint:    "VK_FORMAT_R8_UINT",
	FormatR8Sint:    "VK_FORMAT_R8_SINT",
	FormatR16Uint:   "VK_FORMAT_R16_UINT",
	FormatR16Sint:   "VK_FORMAT_R16_SINT",
	FormatR16Sfloat: "VK_FORMAT_R16_SFLOAT",
	FormatR32Uint:   "VK_FORMAT_R32_UINT",
	FormatR32Sint:   "VK_FORMAT_R32_SINT",
	FormatR32Sfloat: "VK_FORMAT_R32_SFLOAT",
	FormatR64Uint:   "VK_FORMAT_R64_UINT",
	FormatR64Sint:   "VK_FORMAT_R64_SINT",
	FormatR64Sfloat: "VK_FORMAT_R64_SFLOAT",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("VkFormat(%d)", f)
}

// BaseInStructure is VkBaseInStructure, used to walk pNext chains.
type BaseInStructure struct {
	SType StructureType
	PNext unsafe.Pointer
}

// DescriptorSetLayoutBinding is VkDescriptorSetLayoutBinding.
type DescriptorSetLayoutBinding struct {
	Binding            uint32
	DescriptorType     DescriptorType
	DescriptorCount    uint32
	StageFlags         ShaderStageFlags
	PImmutableSamplers *Sampler
}

// DescriptorPoolSize is VkDescriptorPoolSize.
type DescriptorPoolSize struct {
	Type            DescriptorType
	DescriptorCount uint32
}

// DescriptorBufferInfo is VkDescriptorBufferInfo.
type DescriptorBufferInfo struct {
	Buffer Buffer
	Offset DeviceSize
	Range  DeviceSize
}

// DescriptorImageInfo is VkDescriptorImageInfo.
type DescriptorImageInfo struct {
	Sampler     Sampler
	ImageView   ImageView
	ImageLayout ImageLayout
}

// WriteDescriptorSet is VkWriteDescriptorSet. PImageInfo and PBufferInfo are
// raw pointers into caller-owned (or layer-owned) records; the driver reads
// them during the call, so the records must stay put until it returns.
type WriteDescriptorSet struct {
	SType            StructureType
	PNext            unsafe.Pointer
	DstSet           DescriptorSet
	DstBinding       uint32
	DstArrayElement  uint32
	DescriptorCount  uint32
	DescriptorType   DescriptorType
	PImageInfo       *DescriptorImageInfo
	PBufferInfo      *DescriptorBufferInfo
	PTexelBufferView *BufferView
}

// FindInChain walks a pNext chain looking for a structure with the given
// sType. It returns the raw pointer to the structure, or nil.
func FindInChain(pNext unsafe.Pointer, sType StructureType) unsafe.Pointer {
	for p := pNext; p != nil; {
		base := (*BaseInStructure)(p)
		if base.SType == sType {
			return p
		}
		p = base.PNext
	}
	return nil
}
