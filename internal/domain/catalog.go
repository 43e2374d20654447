package domain

// The model catalog mirrors what the admin panel exposes to clients: which
// models exist per server, what knobs each one accepts, and how a job is
// priced. Prices are fixed at submission time; a catalog edit never
// reprices an in-flight job.

// ImagePrice maps an optional resolution token to a credit price.
type ImagePrice struct {
	Resolution string  `json:"resolution,omitempty"`
	Price      float64 `json:"price"`
}

// ImageModel describes one image model and its option surface.
type ImageModel struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	DisplayName     string       `json:"display_name"`
	Server          Server       `json:"server"`
	SupportsImages  bool         `json:"supports_image_to_image"`
	MaxImages       int          `json:"max_images"`
	AspectRatios    []string     `json:"aspect_ratios"`
	Resolutions     []string     `json:"resolutions"`
	OutputFormats   []string     `json:"output_formats"`
	DefaultAspect   string       `json:"default_aspect_ratio"`
	DefaultRes      string       `json:"default_resolution"`
	DefaultFormat   string       `json:"default_output_format"`
	Pricing         []ImagePrice `json:"pricing"`
}

// VideoPrice matches one duration/audio combination to a credit price.
type VideoPrice struct {
	DurationSeconds int     `json:"duration_seconds,omitempty"`
	AudioOn         *bool   `json:"audio_on,omitempty"`
	Price           float64 `json:"price"`
}

// VideoModel describes one video model and its option surface.
type VideoModel struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	DisplayName        string       `json:"display_name"`
	Server             Server       `json:"server"`
	SupportsImageInput bool         `json:"supports_image_to_video"`
	SupportsFirstLast  bool         `json:"supports_first_last_frame"`
	SupportsAudio      bool         `json:"supports_audio"`
	MaxImages          int          `json:"max_images"`
	AspectRatios       []string     `json:"aspect_ratios"`
	Durations          []int        `json:"durations"`
	Resolutions        []string     `json:"resolutions"`
	DefaultAspect      string       `json:"default_aspect_ratio"`
	DefaultDuration    int          `json:"default_duration"`
	DefaultRes         string       `json:"default_resolution"`
	Pricing            []VideoPrice `json:"pricing"`
}

var boolTrue = true
var boolFalse = false

// ImageModels is the full image catalog, both servers.
var ImageModels = []ImageModel{
	{
		ID: "server1-nano-banana-pro", Name: "fal-ai/nano-banana-pro", DisplayName: "Nano Banana Pro",
		Server: Server1, SupportsImages: true, MaxImages: 14,
		AspectRatios:  []string{"21:9", "16:9", "3:2", "4:3", "5:4", "1:1", "4:5", "3:4", "2:3", "9:16"},
		Resolutions:   []string{"1K", "2K", "4K"},
		OutputFormats: []string{"png", "jpeg", "webp"},
		DefaultAspect: "1:1", DefaultRes: "1K", DefaultFormat: "png",
		Pricing: []ImagePrice{{Resolution: "1K", Price: 0.15}, {Resolution: "2K", Price: 0.15}, {Resolution: "4K", Price: 0.3}},
	},
	{
		ID: "server1-imagen3", Name: "fal-ai/imagen3", DisplayName: "Imagen 3",
		Server:       Server1,
		AspectRatios: []string{"1:1", "16:9", "9:16", "3:4", "4:3"},
		DefaultAspect: "1:1",
		Pricing:       []ImagePrice{{Price: 0.05}},
	},
	{
		ID: "server1-imagen4-ultra", Name: "fal-ai/imagen4/preview/ultra", DisplayName: "Imagen 4 Ultra",
		Server:        Server1,
		AspectRatios:  []string{"1:1", "16:9", "9:16", "3:4", "4:3"},
		Resolutions:   []string{"1K", "2K"},
		OutputFormats: []string{"png", "jpeg", "webp"},
		DefaultAspect: "1:1", DefaultRes: "1K", DefaultFormat: "png",
		Pricing: []ImagePrice{{Price: 0.06}},
	},
	{
		ID: "server1-seedream-4.5", Name: "fal-ai/bytedance/seedream/v4.5/text-to-image", DisplayName: "Seedream 4.5",
		Server: Server1, SupportsImages: true, MaxImages: 20,
		AspectRatios:  []string{"square_hd", "square", "portrait_4_3", "portrait_16_9", "landscape_4_3", "landscape_16_9", "auto_2K", "auto_4K"},
		DefaultAspect: "square_hd",
		Pricing:       []ImagePrice{{Price: 0.04}},
	},
	{
		ID: "server2-nano-banana-pro", Name: "gemini-3-pro-image-preview", DisplayName: "Nano Banana Pro",
		Server: Server2, SupportsImages: true, MaxImages: 5,
		AspectRatios:  []string{"1:1", "4:5", "5:4", "3:4", "4:3", "9:16", "16:9", "21:9"},
		Resolutions:   []string{"1K", "2K", "4K"},
		OutputFormats: []string{"png", "jpeg", "webp"},
		DefaultAspect: "1:1", DefaultRes: "1K", DefaultFormat: "png",
		Pricing: []ImagePrice{{Resolution: "1K", Price: 0.15}, {Resolution: "2K", Price: 0.15}, {Resolution: "4K", Price: 0.3}},
	},
	{
		ID: "server2-seedream-4", Name: "seedream-4-0-250828", DisplayName: "Seedream 4",
		Server: Server2, SupportsImages: true, MaxImages: 10,
		AspectRatios: []string{
			"1K", "2K", "4K",
			"1024x1024(1:1)", "1440x2560(9:16)", "1664x2496(2:3)", "1728x2304(3:4)",
			"2048x2048(1:1)", "2304x1728(4:3)", "2496x1664(3:2)", "2560x1440(16:9)",
			"3024x1296(21:9)", "4096x4096(1:1)",
		},
		DefaultAspect: "1024x1024(1:1)",
		Pricing:       []ImagePrice{{Price: 0.05}},
	},
}

// VideoModels is the full video catalog, both servers.
var VideoModels = []VideoModel{
	{
		ID: "veo-3.1-fast-s1", Name: "veo-3.1-fast", DisplayName: "Google Veo 3.1 Fast",
		Server: Server1, SupportsImageInput: true, SupportsFirstLast: true, SupportsAudio: true, MaxImages: 2,
		AspectRatios: []string{"auto", "16:9", "9:16"},
		Durations:    []int{4, 6, 8},
		Resolutions:  []string{"720p", "1080p"},
		DefaultAspect: "auto", DefaultDuration: 8, DefaultRes: "1080p",
		Pricing: []VideoPrice{
			{DurationSeconds: 4, AudioOn: &boolFalse, Price: 0.4},
			{DurationSeconds: 6, AudioOn: &boolFalse, Price: 0.6},
			{DurationSeconds: 8, AudioOn: &boolFalse, Price: 0.8},
			{DurationSeconds: 4, AudioOn: &boolTrue, Price: 0.6},
			{DurationSeconds: 6, AudioOn: &boolTrue, Price: 0.9},
			{DurationSeconds: 8, AudioOn: &boolTrue, Price: 1.2},
		},
	},
	{
		ID: "sora-2-s1", Name: "sora-2", DisplayName: "Sora 2",
		Server: Server1, SupportsImageInput: true, MaxImages: 1,
		AspectRatios: []string{"16:9", "9:16"},
		Durations:    []int{4, 8, 12},
		Resolutions:  []string{"720p"},
		DefaultAspect: "16:9", DefaultDuration: 8, DefaultRes: "720p",
		Pricing: []VideoPrice{
			{DurationSeconds: 4, Price: 0.4},
			{DurationSeconds: 8, Price: 0.8},
			{DurationSeconds: 12, Price: 1.2},
		},
	},
	{
		ID: "veo-3.1-fast-s2", Name: "veo-3.1-fast", DisplayName: "Google Veo 3.1 Fast",
		Server: Server2, SupportsImageInput: true, SupportsFirstLast: true, SupportsAudio: true, MaxImages: 2,
		AspectRatios: []string{"16:9", "9:16"},
		Durations:    []int{4, 6, 8},
		Resolutions:  []string{"720p"},
		DefaultAspect: "16:9", DefaultDuration: 8, DefaultRes: "720p",
		Pricing: []VideoPrice{
			{DurationSeconds: 4, AudioOn: &boolFalse, Price: 0.4},
			{DurationSeconds: 6, AudioOn: &boolFalse, Price: 0.6},
			{DurationSeconds: 8, AudioOn: &boolFalse, Price: 0.8},
			{DurationSeconds: 4, AudioOn: &boolTrue, Price: 0.6},
			{DurationSeconds: 6, AudioOn: &boolTrue, Price: 0.9},
			{DurationSeconds: 8, AudioOn: &boolTrue, Price: 1.2},
		},
	},
}

// ImageModelByID looks up an image model by catalog id.
func ImageModelByID(id string) (ImageModel, bool) {
	for _, m := range ImageModels {
		if m.ID == id {
			return m, true
		}
	}
	return ImageModel{}, false
}

// VideoModelByID looks up a video model by catalog id.
func VideoModelByID(id string) (VideoModel, bool) {
	for _, m := range VideoModels {
		if m.ID == id {
			return m, true
		}
	}
	return VideoModel{}, false
}

// ImagePriceFor resolves the credit cost for an image job. When the model
// carries per-resolution pricing the matching row wins; otherwise the first
// row applies.
func ImagePriceFor(m ImageModel, resolution string) float64 {
	if resolution != "" && len(m.Pricing) > 1 {
		for _, p := range m.Pricing {
			if p.Resolution == resolution {
				return p.Price
			}
		}
	}
	if len(m.Pricing) > 0 {
		return m.Pricing[0].Price
	}
	return 0
}

// VideoPriceFor resolves the credit cost for a video job from duration and
// the audio flag.
func VideoPriceFor(m VideoModel, durationSeconds int, audioOn bool) float64 {
	for _, p := range m.Pricing {
		if p.DurationSeconds != 0 && p.DurationSeconds != durationSeconds {
			continue
		}
		if p.AudioOn != nil && *p.AudioOn != audioOn {
			continue
		}
		return p.Price
	}
	if len(m.Pricing) > 0 {
		return m.Pricing[0].Price
	}
	return 0
}
