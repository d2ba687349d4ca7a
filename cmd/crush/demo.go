package main

import (
	"time"

	"github.com/contentcrush/crush/pkg/model"
)

// demoDataset is the data `crush seed` writes without a snapshot. It covers
// every attachment level, a comment thread and a project with no client,
// which the tree leaves out.
func demoDataset(now time.Time) *model.Dataset {
	day := func(n int) time.Time { return now.AddDate(0, 0, -n).Truncate(time.Hour) }
	due := now.AddDate(0, 0, 14).Truncate(24 * time.Hour)

	return &model.Dataset{
		Clients: []model.Client{
			{ID: 1, Name: "Acme", Email: "studio@acme.test", Company: "Acme Corp", CreatedAt: day(90)},
			{ID: 2, Name: "Globex", Company: "Globex Corporation", CreatedAt: day(60)},
			{ID: 3, Name: "Initech", CreatedAt: day(5)},
		},
		Projects: []model.Project{
			{ID: 10, Name: "Website", ClientID: model.Ref(1), Status: model.ProjectActive, CreatedAt: day(80)},
			{ID: 11, Name: "Spring campaign", ClientID: model.Ref(1), Status: model.ProjectPlanning, CreatedAt: day(20)},
			{ID: 20, Name: "Brand refresh", ClientID: model.Ref(2), Status: model.ProjectOnHold, CreatedAt: day(55)},
			{ID: 90, Name: "Internal templates", Status: model.ProjectActive, CreatedAt: day(100)},
		},
		Tasks: []model.Task{
			{ID: 100, Title: "Design", ProjectID: model.Ref(10), Status: model.TaskInProgress, DueDate: &due},
			{ID: 101, Title: "Copy review", ProjectID: model.Ref(10), Status: model.TaskReview},
			{ID: 110, Title: "Storyboard", ProjectID: model.Ref(11), Status: model.TaskTodo},
			{ID: 200, Title: "Logo concepts", ProjectID: model.Ref(20), Status: model.TaskDone},
		},
		Attachments: []model.Attachment{
			{ID: 1000, Type: model.EntityTask, EntityID: 100, FileName: "logo.png", FileType: "image/png", FileSize: 48_213, UploadedAt: day(12), IsFavorite: true},
			{ID: 1001, Type: model.EntityTask, EntityID: 100, FileName: "homepage.fig", FileType: "application/octet-stream", FileSize: 3_512_000, UploadedAt: day(10)},
			{ID: 1002, Type: model.EntityTask, EntityID: 101, FileName: "copy.md", FileType: "text/markdown", FileSize: 4_096, UploadedAt: day(3)},
			{ID: 1003, Type: model.EntityProject, EntityID: 10, FileName: "brief.pdf", FileType: "application/pdf", FileSize: 820_000, UploadedAt: day(79)},
			{ID: 1004, Type: model.EntityClient, EntityID: 1, FileName: "contract.pdf", FileType: "application/pdf", FileSize: 210_500, UploadedAt: day(88), IsFavorite: true},
			{ID: 1005, Type: model.EntityTask, EntityID: 110, FileName: "storyboard.mp4", FileType: "video/mp4", FileSize: 58_000_000, UploadedAt: day(2)},
			{ID: 1006, Type: model.EntityProject, EntityID: 20, FileName: "assets.zip", FileType: "application/zip", FileSize: 12_400_000, UploadedAt: day(50)},
			{ID: 1007, Type: model.EntityTask, EntityID: 200, FileName: "budget.xlsx", FileType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FileSize: 35_800, UploadedAt: day(49)},
			{ID: 1008, Type: model.EntityProject, EntityID: 90, FileName: "template.docx", FileType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", FileSize: 64_000, UploadedAt: day(99)},
		},
		Comments: []model.Comment{
			{ID: 1, EntityType: model.EntityTask, EntityID: 100, Author: "sam", Text: "First pass of the logo is up.", CreatedAt: day(12)},
			{ID: 2, EntityType: model.EntityTask, EntityID: 100, ParentID: model.Ref(1), Author: "alex", Text: "Can we try a darker green?", CreatedAt: day(11)},
			{ID: 3, EntityType: model.EntityProject, EntityID: 10, Author: "kim", Text: "Launch moved to next month.", CreatedAt: day(30)},
		},
	}
}
