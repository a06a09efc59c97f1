//go:build vkpreview

// Package vkpreview is a reference downstream consumer of an applied
// geometry list: an offscreen Vulkan backend that triangulates and draws
// whatever the engine last flushed. It is not part of the geometry engine
// — spec.md's Non-goals exclude rasterization — and is gated behind the
// vkpreview build tag so importing geomengine never pulls in a GPU
// dependency. Grounded on the teacher's voodoo_vulkan.go: offscreen
// image/render-pass/framebuffer setup, a single fixed pipeline, a dynamic
// vertex buffer, and staging-buffer readback, trimmed to this domain's
// needs (no depth/stencil or blend-mode variants — spec.md's Non-goals
// exclude pixel-level shading entirely, so one untextured, unblended
// pipeline is enough to prove the consumer contract).
package vkpreview

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	geom "github.com/handheld3d/geomengine"
)

// Vertex is the vertex format handed to the fixed pipeline: clip-space
// position (w dropped — already perspective-divided by triangulate) and
// color.
type Vertex struct {
	Position [3]float32
	Color    [4]float32
}

// Backend is an offscreen Vulkan renderer over one applied GeometryList.
type Backend struct {
	width, height int

	instance       vk.Instance
	physicalDevice vk.PhysicalDevice
	device         vk.Device
	graphicsQueue  vk.Queue
	queueFamily    uint32

	colorImage       vk.Image
	colorImageMemory vk.DeviceMemory
	colorImageView   vk.ImageView

	renderPass  vk.RenderPass
	framebuffer vk.Framebuffer

	pipelineLayout vk.PipelineLayout
	pipeline       vk.Pipeline

	vertexBuffer       vk.Buffer
	vertexBufferMemory vk.DeviceMemory
	vertexBufferSize   vk.DeviceSize

	stagingBuffer       vk.Buffer
	stagingBufferMemory vk.DeviceMemory

	commandPool   vk.CommandPool
	commandBuffer vk.CommandBuffer
	fence         vk.Fence

	initialized bool
}

// New returns an unopened Backend; call Init to bring up Vulkan.
func New() *Backend { return &Backend{} }

// Init brings up an offscreen Vulkan context at width x height and builds
// a single fixed graphics pipeline from caller-supplied SPIR-V bytecode.
// No shader compiler is available in this build; vertSPIRV/fragSPIRV are a
// trivial pass-through vertex shader (transforms Vertex.Position as
// already-clip-space, forwards Color) and an unlit fragment shader,
// compiled offline by the caller.
func (b *Backend) Init(width, height int, vertSPIRV, fragSPIRV []byte) error {
	b.width, b.height = width, height

	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return fmt.Errorf("vkpreview: loading vulkan library: %w", err)
	}
	if err := vk.Init(); err != nil {
		return fmt.Errorf("vkpreview: initializing vulkan loader: %w", err)
	}

	if err := b.createInstance(); err != nil {
		return err
	}
	if err := b.selectPhysicalDevice(); err != nil {
		b.Close()
		return err
	}
	if err := b.createDevice(); err != nil {
		b.Close()
		return err
	}
	if err := b.createCommandPool(); err != nil {
		b.Close()
		return err
	}
	if err := b.createOffscreenImage(); err != nil {
		b.Close()
		return err
	}
	if err := b.createRenderPass(); err != nil {
		b.Close()
		return err
	}
	if err := b.createFramebuffer(); err != nil {
		b.Close()
		return err
	}
	if err := b.createPipeline(vertSPIRV, fragSPIRV); err != nil {
		b.Close()
		return err
	}
	if err := b.createStagingBuffer(); err != nil {
		b.Close()
		return err
	}
	if err := b.createCommandBuffer(); err != nil {
		b.Close()
		return err
	}
	if err := b.createFence(); err != nil {
		b.Close()
		return err
	}

	b.initialized = true
	return nil
}

func safeString(s string) string { return s + "\x00" }

func (b *Backend) createInstance() error {
	appInfo := vk.ApplicationInfo{
		SType:            vk.StructureTypeApplicationInfo,
		PApplicationName: safeString("geomengine vkpreview"),
		PEngineName:      safeString("geomengine"),
		ApiVersion:       vk.MakeVersion(1, 1, 0),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &appInfo,
	}
	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return fmt.Errorf("vkpreview: vkCreateInstance failed: %d", res)
	}
	b.instance = instance
	vk.InitInstance(instance)
	return nil
}

func (b *Backend) selectPhysicalDevice() error {
	var count uint32
	vk.EnumeratePhysicalDevices(b.instance, &count, nil)
	if count == 0 {
		return fmt.Errorf("vkpreview: no Vulkan-capable GPUs found")
	}
	devices := make([]vk.PhysicalDevice, count)
	vk.EnumeratePhysicalDevices(b.instance, &count, devices)

	for _, dev := range devices {
		var qfCount uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(dev, &qfCount, nil)
		qfs := make([]vk.QueueFamilyProperties, qfCount)
		vk.GetPhysicalDeviceQueueFamilyProperties(dev, &qfCount, qfs)
		for i, qf := range qfs {
			qf.Deref()
			if qf.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
				b.physicalDevice = dev
				b.queueFamily = uint32(i)
				return nil
			}
		}
	}
	return fmt.Errorf("vkpreview: no GPU with a graphics queue found")
}

func (b *Backend) createDevice() error {
	priority := float32(1.0)
	queueInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: b.queueFamily,
		QueueCount:       1,
		PQueuePriorities: []float32{priority},
	}
	deviceInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos:    []vk.DeviceQueueCreateInfo{queueInfo},
	}
	var device vk.Device
	if res := vk.CreateDevice(b.physicalDevice, &deviceInfo, nil, &device); res != vk.Success {
		return fmt.Errorf("vkpreview: vkCreateDevice failed: %d", res)
	}
	b.device = device
	var queue vk.Queue
	vk.GetDeviceQueue(device, b.queueFamily, 0, &queue)
	b.graphicsQueue = queue
	return nil
}

func (b *Backend) createCommandPool() error {
	info := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: b.queueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(b.device, &info, nil, &pool); res != vk.Success {
		return fmt.Errorf("vkpreview: vkCreateCommandPool failed: %d", res)
	}
	b.commandPool = pool
	return nil
}

func (b *Backend) findMemoryType(typeBits uint32, props vk.MemoryPropertyFlags) (uint32, error) {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(b.physicalDevice, &memProps)
	memProps.Deref()
	for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
		memProps.MemoryTypes[i].Deref()
		if typeBits&(1<<i) != 0 && memProps.MemoryTypes[i].PropertyFlags&props == props {
			return i, nil
		}
	}
	return 0, fmt.Errorf("vkpreview: no suitable memory type")
}

func (b *Backend) createOffscreenImage() error {
	info := vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        vk.FormatR8g8b8a8Unorm,
		Extent:        vk.Extent3D{Width: uint32(b.width), Height: uint32(b.height), Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferSrcBit),
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var image vk.Image
	if res := vk.CreateImage(b.device, &info, nil, &image); res != vk.Success {
		return fmt.Errorf("vkpreview: vkCreateImage failed: %d", res)
	}
	b.colorImage = image

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(b.device, image, &req)
	req.Deref()
	typeIdx, err := b.findMemoryType(req.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return err
	}
	allocInfo := vk.MemoryAllocateInfo{SType: vk.StructureTypeMemoryAllocateInfo, AllocationSize: req.Size, MemoryTypeIndex: typeIdx}
	var mem vk.DeviceMemory
	if res := vk.AllocateMemory(b.device, &allocInfo, nil, &mem); res != vk.Success {
		return fmt.Errorf("vkpreview: vkAllocateMemory failed: %d", res)
	}
	b.colorImageMemory = mem
	vk.BindImageMemory(b.device, image, mem, 0)

	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   vk.FormatR8g8b8a8Unorm,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit), LevelCount: 1, LayerCount: 1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(b.device, &viewInfo, nil, &view); res != vk.Success {
		return fmt.Errorf("vkpreview: vkCreateImageView failed: %d", res)
	}
	b.colorImageView = view
	return nil
}

func (b *Backend) createRenderPass() error {
	colorAttachment := vk.AttachmentDescription{
		Format:         vk.FormatR8g8b8a8Unorm,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutTransferSrcOptimal,
	}
	colorRef := vk.AttachmentReference{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    []vk.AttachmentReference{colorRef},
	}
	info := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}
	var rp vk.RenderPass
	if res := vk.CreateRenderPass(b.device, &info, nil, &rp); res != vk.Success {
		return fmt.Errorf("vkpreview: vkCreateRenderPass failed: %d", res)
	}
	b.renderPass = rp
	return nil
}

func (b *Backend) createFramebuffer() error {
	attachments := []vk.ImageView{b.colorImageView}
	info := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      b.renderPass,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           uint32(b.width),
		Height:          uint32(b.height),
		Layers:          1,
	}
	var fb vk.Framebuffer
	if res := vk.CreateFramebuffer(b.device, &info, nil, &fb); res != vk.Success {
		return fmt.Errorf("vkpreview: vkCreateFramebuffer failed: %d", res)
	}
	b.framebuffer = fb
	return nil
}

func (b *Backend) createShaderModule(code []byte) (vk.ShaderModule, error) {
	info := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}
	var mod vk.ShaderModule
	if res := vk.CreateShaderModule(b.device, &info, nil, &mod); res != vk.Success {
		return vk.NullShaderModule, fmt.Errorf("vkpreview: vkCreateShaderModule failed: %d", res)
	}
	return mod, nil
}

func sliceUint32(data []byte) []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

func (b *Backend) createPipeline(vertSPIRV, fragSPIRV []byte) error {
	vertMod, err := b.createShaderModule(vertSPIRV)
	if err != nil {
		return err
	}
	fragMod, err := b.createShaderModule(fragSPIRV)
	if err != nil {
		return err
	}
	defer vk.DestroyShaderModule(b.device, vertMod, nil)
	defer vk.DestroyShaderModule(b.device, fragMod, nil)

	layoutInfo := vk.PipelineLayoutCreateInfo{SType: vk.StructureTypePipelineLayoutCreateInfo}
	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(b.device, &layoutInfo, nil, &layout); res != vk.Success {
		return fmt.Errorf("vkpreview: vkCreatePipelineLayout failed: %d", res)
	}
	b.pipelineLayout = layout

	stages := []vk.PipelineShaderStageCreateInfo{
		{SType: vk.StructureTypePipelineShaderStageCreateInfo, Stage: vk.ShaderStageVertexBit, Module: vertMod, PName: safeString("main")},
		{SType: vk.StructureTypePipelineShaderStageCreateInfo, Stage: vk.ShaderStageFragmentBit, Module: fragMod, PName: safeString("main")},
	}

	binding := vk.VertexInputBindingDescription{Binding: 0, Stride: uint32(unsafe.Sizeof(Vertex{})), InputRate: vk.VertexInputRateVertex}
	attrs := []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32a32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Color))},
	}
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{binding},
		VertexAttributeDescriptionCount: uint32(len(attrs)),
		PVertexAttributeDescriptions:    attrs,
	}
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType: vk.StructureTypePipelineInputAssemblyStateCreateInfo, Topology: vk.PrimitiveTopologyTriangleList,
	}
	viewport := vk.Viewport{Width: float32(b.width), Height: float32(b.height), MaxDepth: 1}
	scissor := vk.Rect2D{Extent: vk.Extent2D{Width: uint32(b.width), Height: uint32(b.height)}}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType: vk.StructureTypePipelineViewportStateCreateInfo, ViewportCount: 1, PViewports: []vk.Viewport{viewport},
		ScissorCount: 1, PScissors: []vk.Rect2D{scissor},
	}
	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType: vk.StructureTypePipelineRasterizationStateCreateInfo, PolygonMode: vk.PolygonModeFill,
		CullMode: vk.CullModeFlags(vk.CullModeNone), FrontFace: vk.FrontFaceCounterClockwise, LineWidth: 1.0,
	}
	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType: vk.StructureTypePipelineMultisampleStateCreateInfo, RasterizationSamples: vk.SampleCount1Bit, MinSampleShading: 1.0,
	}
	colorBlendAttachment := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType: vk.StructureTypePipelineColorBlendStateCreateInfo, AttachmentCount: 1,
		PAttachments: []vk.PipelineColorBlendAttachmentState{colorBlendAttachment},
	}

	pipelineInfo := vk.GraphicsPipelineCreateInfo{
		SType: vk.StructureTypeGraphicsPipelineCreateInfo, StageCount: uint32(len(stages)), PStages: stages,
		PVertexInputState: &vertexInput, PInputAssemblyState: &inputAssembly, PViewportState: &viewportState,
		PRasterizationState: &rasterizer, PMultisampleState: &multisample, PColorBlendState: &colorBlend,
		Layout: layout, RenderPass: b.renderPass, Subpass: 0,
	}
	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(b.device, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{pipelineInfo}, nil, pipelines); res != vk.Success {
		return fmt.Errorf("vkpreview: vkCreateGraphicsPipelines failed: %d", res)
	}
	b.pipeline = pipelines[0]
	return nil
}

func (b *Backend) createStagingBuffer() error {
	size := vk.DeviceSize(b.width * b.height * 4)
	info := vk.BufferCreateInfo{SType: vk.StructureTypeBufferCreateInfo, Size: size, Usage: vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)}
	var buf vk.Buffer
	if res := vk.CreateBuffer(b.device, &info, nil, &buf); res != vk.Success {
		return fmt.Errorf("vkpreview: vkCreateBuffer (staging) failed: %d", res)
	}
	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(b.device, buf, &req)
	req.Deref()
	typeIdx, err := b.findMemoryType(req.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return err
	}
	allocInfo := vk.MemoryAllocateInfo{SType: vk.StructureTypeMemoryAllocateInfo, AllocationSize: req.Size, MemoryTypeIndex: typeIdx}
	var mem vk.DeviceMemory
	if res := vk.AllocateMemory(b.device, &allocInfo, nil, &mem); res != vk.Success {
		return fmt.Errorf("vkpreview: vkAllocateMemory (staging) failed: %d", res)
	}
	vk.BindBufferMemory(b.device, buf, mem, 0)
	b.stagingBuffer, b.stagingBufferMemory = buf, mem
	return nil
}

func (b *Backend) createCommandBuffer() error {
	info := vk.CommandBufferAllocateInfo{
		SType: vk.StructureTypeCommandBufferAllocateInfo, CommandPool: b.commandPool,
		Level: vk.CommandBufferLevelPrimary, CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(b.device, &info, buffers); res != vk.Success {
		return fmt.Errorf("vkpreview: vkAllocateCommandBuffers failed: %d", res)
	}
	b.commandBuffer = buffers[0]
	return nil
}

func (b *Backend) createFence() error {
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	var fence vk.Fence
	if res := vk.CreateFence(b.device, &info, nil, &fence); res != vk.Success {
		return fmt.Errorf("vkpreview: vkCreateFence failed: %d", res)
	}
	b.fence = fence
	return nil
}

// triangulate walks an applied GeometryList's clipped polygons (each a
// convex fan of 3..10 vertices) and fans them into triangles, dividing
// X/Y/Z by W to land in NDC (spec.md §4.9's output is still clip-space; this is
// the one perspective divide a downstream consumer, not the engine, is
// responsible for).
func triangulate(list *geom.GeometryList) []Vertex {
	var out []Vertex
	for i := 0; i < list.ClipCount; i++ {
		cp := &list.Clipped[i]
		if cp.VertCount < 3 {
			continue
		}
		toVertex := func(v geom.ClippedVertex) Vertex {
			w := v.Pos.W
			if w == 0 {
				w = 1
			}
			return Vertex{
				Position: [3]float32{v.Pos.X / w, v.Pos.Y / w, v.Pos.Z / w},
				Color:    [4]float32{v.ColorF[0], v.ColorF[1], v.ColorF[2], 1},
			}
		}
		for k := 1; k < cp.VertCount-1; k++ {
			out = append(out, toVertex(cp.Verts[0]), toVertex(cp.Verts[k]), toVertex(cp.Verts[k+1]))
		}
	}
	return out
}

func (b *Backend) uploadVertices(verts []Vertex) error {
	size := vk.DeviceSize(len(verts) * int(unsafe.Sizeof(Vertex{})))
	if size == 0 {
		return nil
	}
	if b.vertexBuffer != vk.NullBuffer && size > b.vertexBufferSize {
		vk.DestroyBuffer(b.device, b.vertexBuffer, nil)
		vk.FreeMemory(b.device, b.vertexBufferMemory, nil)
		b.vertexBuffer = vk.NullBuffer
	}
	if b.vertexBuffer == vk.NullBuffer {
		info := vk.BufferCreateInfo{SType: vk.StructureTypeBufferCreateInfo, Size: size, Usage: vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)}
		var buf vk.Buffer
		if res := vk.CreateBuffer(b.device, &info, nil, &buf); res != vk.Success {
			return fmt.Errorf("vkpreview: vkCreateBuffer (vertex) failed: %d", res)
		}
		var req vk.MemoryRequirements
		vk.GetBufferMemoryRequirements(b.device, buf, &req)
		req.Deref()
		typeIdx, err := b.findMemoryType(req.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
		if err != nil {
			return err
		}
		allocInfo := vk.MemoryAllocateInfo{SType: vk.StructureTypeMemoryAllocateInfo, AllocationSize: req.Size, MemoryTypeIndex: typeIdx}
		var mem vk.DeviceMemory
		if res := vk.AllocateMemory(b.device, &allocInfo, nil, &mem); res != vk.Success {
			return fmt.Errorf("vkpreview: vkAllocateMemory (vertex) failed: %d", res)
		}
		vk.BindBufferMemory(b.device, buf, mem, 0)
		b.vertexBuffer, b.vertexBufferMemory, b.vertexBufferSize = buf, mem, size
	}

	var data unsafe.Pointer
	vk.MapMemory(b.device, b.vertexBufferMemory, 0, size, 0, &data)
	dst := unsafe.Slice((*Vertex)(data), len(verts))
	copy(dst, verts)
	vk.UnmapMemory(b.device, b.vertexBufferMemory)
	return nil
}

// Draw triangulates list's applied geometry and issues one renderpass of
// draw calls against the offscreen framebuffer.
func (b *Backend) Draw(list *geom.GeometryList) error {
	if !b.initialized {
		return fmt.Errorf("vkpreview: backend not initialized")
	}
	verts := triangulate(list)
	if err := b.uploadVertices(verts); err != nil {
		return err
	}

	vk.ResetCommandBuffer(b.commandBuffer, 0)
	beginInfo := vk.CommandBufferBeginInfo{SType: vk.StructureTypeCommandBufferBeginInfo}
	if res := vk.BeginCommandBuffer(b.commandBuffer, &beginInfo); res != vk.Success {
		return fmt.Errorf("vkpreview: vkBeginCommandBuffer failed: %d", res)
	}

	clearValue := vk.NewClearValue([]float32{0, 0, 0, 1})
	rpInfo := vk.RenderPassBeginInfo{
		SType: vk.StructureTypeRenderPassBeginInfo, RenderPass: b.renderPass, Framebuffer: b.framebuffer,
		RenderArea:      vk.Rect2D{Extent: vk.Extent2D{Width: uint32(b.width), Height: uint32(b.height)}},
		ClearValueCount: 1, PClearValues: []vk.ClearValue{clearValue},
	}
	vk.CmdBeginRenderPass(b.commandBuffer, &rpInfo, vk.SubpassContentsInline)
	vk.CmdBindPipeline(b.commandBuffer, vk.PipelineBindPointGraphics, b.pipeline)
	if len(verts) > 0 {
		offsets := []vk.DeviceSize{0}
		vk.CmdBindVertexBuffers(b.commandBuffer, 0, 1, []vk.Buffer{b.vertexBuffer}, offsets)
		vk.CmdDraw(b.commandBuffer, uint32(len(verts)), 1, 0, 0)
	}
	vk.CmdEndRenderPass(b.commandBuffer)

	if res := vk.EndCommandBuffer(b.commandBuffer); res != vk.Success {
		return fmt.Errorf("vkpreview: vkEndCommandBuffer failed: %d", res)
	}

	vk.ResetFences(b.device, 1, []vk.Fence{b.fence})
	submitInfo := vk.SubmitInfo{
		SType: vk.StructureTypeSubmitInfo, CommandBufferCount: 1, PCommandBuffers: []vk.CommandBuffer{b.commandBuffer},
	}
	if res := vk.QueueSubmit(b.graphicsQueue, 1, []vk.SubmitInfo{submitInfo}, b.fence); res != vk.Success {
		return fmt.Errorf("vkpreview: vkQueueSubmit failed: %d", res)
	}
	vk.WaitForFences(b.device, 1, []vk.Fence{b.fence}, vk.True, ^uint64(0))
	return nil
}

// Close tears down every Vulkan object this backend created, in reverse
// dependency order. Safe to call on a partially-initialized Backend.
func (b *Backend) Close() {
	if b.fence != vk.NullFence {
		vk.DestroyFence(b.device, b.fence, nil)
	}
	if b.vertexBuffer != vk.NullBuffer {
		vk.DestroyBuffer(b.device, b.vertexBuffer, nil)
		vk.FreeMemory(b.device, b.vertexBufferMemory, nil)
	}
	if b.stagingBuffer != vk.NullBuffer {
		vk.DestroyBuffer(b.device, b.stagingBuffer, nil)
		vk.FreeMemory(b.device, b.stagingBufferMemory, nil)
	}
	if b.pipeline != vk.NullPipeline {
		vk.DestroyPipeline(b.device, b.pipeline, nil)
	}
	if b.pipelineLayout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(b.device, b.pipelineLayout, nil)
	}
	if b.framebuffer != vk.NullFramebuffer {
		vk.DestroyFramebuffer(b.device, b.framebuffer, nil)
	}
	if b.renderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(b.device, b.renderPass, nil)
	}
	if b.colorImageView != vk.NullImageView {
		vk.DestroyImageView(b.device, b.colorImageView, nil)
	}
	if b.colorImage != vk.NullImage {
		vk.DestroyImage(b.device, b.colorImage, nil)
		vk.FreeMemory(b.device, b.colorImageMemory, nil)
	}
	if b.commandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(b.device, b.commandPool, nil)
	}
	if b.device != vk.NullDevice {
		vk.DestroyDevice(b.device, nil)
	}
	if b.instance != vk.NullInstance {
		vk.DestroyInstance(b.instance, nil)
	}
	b.initialized = false
}
