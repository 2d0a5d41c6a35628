package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/kaelos/prism/engine/renderer/driver"
)

func (d *Device) BeginCommandBuffer(cb driver.CommandBuffer, oneTimeSubmit bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if oneTimeSubmit {
		beginInfo.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if res := vk.BeginCommandBuffer(d.cmdbufs[cb], &beginInfo); res != vk.Success {
		return fmt.Errorf("vkBeginCommandBuffer failed: %s", resultString(res))
	}
	return nil
}

func (d *Device) EndCommandBuffer(cb driver.CommandBuffer) error {
	if res := vk.EndCommandBuffer(d.cmdbufs[cb]); res != vk.Success {
		return fmt.Errorf("vkEndCommandBuffer failed: %s", resultString(res))
	}
	return nil
}

func (d *Device) CmdBeginRenderPass(cb driver.CommandBuffer, pass driver.RenderPass, fb driver.Framebuffer, extent driver.Extent2D, clear driver.ClearColor) {
	clearValue := vk.NewClearValue([]float32{clear[0], clear[1], clear[2], clear[3]})
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  d.renderPasses[pass],
		Framebuffer: d.framebuffers[fb],
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: extent.Width, Height: extent.Height},
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{clearValue},
	}
	vk.CmdBeginRenderPass(d.cmdbufs[cb], &beginInfo, vk.SubpassContentsInline)
}

func (d *Device) CmdEndRenderPass(cb driver.CommandBuffer) {
	vk.CmdEndRenderPass(d.cmdbufs[cb])
}

func (d *Device) CmdBindPipeline(cb driver.CommandBuffer, p driver.Pipeline) {
	vk.CmdBindPipeline(d.cmdbufs[cb], vk.PipelineBindPointGraphics, d.pipelines[p])
}

func (d *Device) CmdBindVertexBuffer(cb driver.CommandBuffer, b driver.Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(d.cmdbufs[cb], 0, 1,
		[]vk.Buffer{d.buffers[b].buffer}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (d *Device) CmdBindIndexBuffer(cb driver.CommandBuffer, b driver.Buffer, offset uint64) {
	vk.CmdBindIndexBuffer(d.cmdbufs[cb], d.buffers[b].buffer, vk.DeviceSize(offset), vk.IndexTypeUint32)
}

func (d *Device) CmdDrawIndexed(cb driver.CommandBuffer, indexCount uint32) {
	vk.CmdDrawIndexed(d.cmdbufs[cb], indexCount, 1, 0, 0, 0)
}

func (d *Device) CmdCopyBuffer(cb driver.CommandBuffer, src, dst driver.Buffer, size uint64) {
	region := vk.BufferCopy{Size: vk.DeviceSize(size)}
	vk.CmdCopyBuffer(d.cmdbufs[cb], d.buffers[src].buffer, d.buffers[dst].buffer,
		1, []vk.BufferCopy{region})
}

func presentStatus(res vk.Result) (driver.PresentStatus, error) {
	switch res {
	case vk.Success:
		return driver.PresentSuccess, nil
	case vk.Suboptimal:
		return driver.PresentSuboptimal, nil
	case vk.ErrorOutOfDate:
		return driver.PresentOutOfDate, nil
	default:
		return driver.PresentSuccess, fmt.Errorf("presentation engine reported %s", resultString(res))
	}
}

func (d *Device) AcquireNextImage(sc driver.Swapchain, timeoutNs uint64, sem driver.Semaphore) (uint32, driver.PresentStatus, error) {
	var index uint32
	res := vk.AcquireNextImage(d.dev, d.swapchains[sc], timeoutNs, d.semaphores[sem], vk.NullFence, &index)
	status, err := presentStatus(res)
	if err != nil {
		return 0, status, fmt.Errorf("vkAcquireNextImageKHR failed: %w", err)
	}
	return index, status, nil
}

func (d *Device) Submit(cb driver.CommandBuffer, wait, signal driver.Semaphore) error {
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{d.cmdbufs[cb]},
	}
	if wait != 0 {
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{d.semaphores[wait]}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		}
	}
	if signal != 0 {
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{d.semaphores[signal]}
	}

	if res := vk.QueueSubmit(d.queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
		return fmt.Errorf("vkQueueSubmit failed: %s", resultString(res))
	}
	return nil
}

func (d *Device) Present(sc driver.Swapchain, imageIndex uint32, wait driver.Semaphore) (driver.PresentStatus, error) {
	presentInfo := vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{d.swapchains[sc]},
		PImageIndices:  []uint32{imageIndex},
	}
	if wait != 0 {
		presentInfo.WaitSemaphoreCount = 1
		presentInfo.PWaitSemaphores = []vk.Semaphore{d.semaphores[wait]}
	}

	status, err := presentStatus(vk.QueuePresent(d.queue, &presentInfo))
	if err != nil {
		return status, fmt.Errorf("vkQueuePresentKHR failed: %w", err)
	}
	return status, nil
}

func (d *Device) QueueWaitIdle() error {
	if res := vk.QueueWaitIdle(d.queue); res != vk.Success {
		return fmt.Errorf("vkQueueWaitIdle failed: %s", resultString(res))
	}
	return nil
}

func (d *Device) WaitIdle() error {
	if res := vk.DeviceWaitIdle(d.dev); res != vk.Success {
		return fmt.Errorf("vkDeviceWaitIdle failed: %s", resultString(res))
	}
	return nil
}
