package store

import "github.com/alfredjeanlab/devjournal/internal/model"

// SeedEntries returns the posts a fresh entry document starts with.
func SeedEntries() []*model.Entry {
	return []*model.Entry{
		{
			ID:     "abc12",
			Title:  "Getting Started with Node.js",
			Author: "Sarah Johnson",
			Date:   "2024-01-15T14:30:00.000Z",
			HTML:   "<p>Node.js is a powerful runtime environment that allows you to run JavaScript on the server side. In this post, we'll explore the basics of setting up your first Node.js application.</p>",
		},
		{
			ID:     "def34",
			Title:  "Understanding React Hooks",
			Author: "Mike Chen",
			Date:   "2024-01-20T09:15:00.000Z",
			HTML:   "<p>React Hooks have revolutionized how we write React components. Learn about useState, useEffect, and other essential hooks that will make your code cleaner and more efficient.</p>",
		},
		{
			ID:     "ghi56",
			Title:  "CSS Grid vs Flexbox",
			Author: "Emily Rodriguez",
			Date:   "2024-01-25T16:45:00.000Z",
			HTML:   "<p>Both CSS Grid and Flexbox are powerful layout tools, but knowing when to use each one is crucial. This guide breaks down the key differences and use cases for both.</p>",
		},
	}
}

// SeedUsers returns the users a fresh user document starts with.
func SeedUsers() []*model.User {
	mark := "fc730c501970ba38832ca14974c76357.jpg"
	lily := "7c8792a753fc06f10e3daf68eab0a8be.jpeg"
	return []*model.User{
		{
			ID:          "JEbxp",
			FirstName:   "Mark",
			LastName:    "Montoya",
			PortraitImg: &mark,
			CSRF:        "sSNAzhZh-csARwTjj10u8ghEOpgqkTZdOW64",
		},
		{
			ID:          "eixJM",
			FirstName:   "Lily Jo",
			LastName:    "Canine",
			PortraitImg: &lily,
			CSRF:        "yglP5OtG-Xar1Ts-VHum9XcINBiw0bKVJTlY",
		},
	}
}
