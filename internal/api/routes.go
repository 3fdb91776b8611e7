package api

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.WorkerInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	zones := s.router.Group("/zones")
	{
		zones.GET("", s.zoneHandler.ListZones)
		zones.POST("", s.zoneHandler.CreateZone)
		zones.DELETE("", s.zoneHandler.DeleteZones)
		zones.POST("/save", s.zoneHandler.SaveZones)
		zones.POST("/load", s.zoneHandler.LoadZones)
	}

	s.router.GET("/lights", s.lightHandler.ListLights)

	if s.trackingHandler != nil {
		tracking := s.router.Group("/tracking")
		{
			tracking.POST("/start", s.trackingHandler.Start)
			tracking.POST("/stop", s.trackingHandler.Stop)
			tracking.GET("/status", s.trackingHandler.Status)
		}
	}

	if s.ptzHandler != nil {
		ptz := s.router.Group("/ptz")
		{
			ptz.POST("/move", s.ptzHandler.Move)
			ptz.POST("/stop", s.ptzHandler.Stop)
			ptz.POST("/speed", s.ptzHandler.SetSpeed)
			ptz.GET("/status", s.ptzHandler.Status)
		}
	}
}
